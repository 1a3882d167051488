package csv

import (
	"net/http"
)

var SupportedExtensions = []string{
	".csv",
	".tsv",
}

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithComma(comma rune) Option {
	return func(c *Client) {
		c.comma = comma
	}
}
