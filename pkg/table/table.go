package table

import (
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"
)

type Provider interface {
	Read(ctx context.Context, input Input) (*Table, error)
}

var (
	ErrUnsupported = errors.New("unsupported table format")
	ErrEmptyInput  = errors.New("empty input")
)

// Input names a columnar file either by URL or by already opened content.
type Input struct {
	Name string

	URL string

	Content io.ReaderAt
	Size    int64
}

func (i Input) Ext() string {
	name := i.Name

	if name == "" {
		name = i.URL

		if idx := strings.IndexAny(name, "?#"); idx >= 0 {
			name = name[:idx]
		}
	}

	return strings.ToLower(path.Ext(name))
}

// Table holds rows sharing one column set, in file order.
type Table struct {
	Columns []string
	Records [][]any
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.Records)
}

func (t *Table) Index(column string) int {
	return slices.Index(t.Columns, column)
}
