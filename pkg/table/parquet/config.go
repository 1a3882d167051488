package parquet

import (
	"net/http"
)

var SupportedExtensions = []string{
	".parquet",
	".pq",
}

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBatchSize sets how many rows are decoded per read call.
func WithBatchSize(size int) Option {
	return func(c *Client) {
		c.batchSize = size
	}
}
