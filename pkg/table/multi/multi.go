package multi

import (
	"context"
	"errors"

	"github.com/atlascope/atlascope/pkg/table"
)

var _ table.Provider = &Reader{}

// Reader tries each provider in order and returns the first table read.
type Reader struct {
	providers []table.Provider
}

func New(provider ...table.Provider) *Reader {
	return &Reader{
		providers: provider,
	}
}

func (r *Reader) Read(ctx context.Context, input table.Input) (*table.Table, error) {
	for _, p := range r.providers {
		result, err := p.Read(ctx, input)

		if err != nil {
			if errors.Is(err, table.ErrUnsupported) {
				continue
			}

			return nil, err
		}

		return result, nil
	}

	return nil, table.ErrUnsupported
}
