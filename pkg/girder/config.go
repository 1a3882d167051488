package girder

import (
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithPageSize(size int) Option {
	return func(c *Client) {
		c.pageSize = size
	}
}

// WithConcurrency bounds the parallel sibling requests of FolderTree.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCache keeps the tile metadata of up to size items.
func WithCache(size int) Option {
	return func(c *Client) {
		if size <= 0 {
			c.tiles = nil
			return
		}

		c.tiles, _ = lru.New[string, *TileInfo](size)
	}
}
