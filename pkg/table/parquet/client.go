package parquet

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/atlascope/atlascope/pkg/table"

	"github.com/parquet-go/parquet-go"
)

var _ table.Provider = &Client{}

type Client struct {
	client *http.Client

	batchSize int
}

func New(options ...Option) (*Client, error) {
	c := &Client{
		client: http.DefaultClient,

		batchSize: 256,
	}

	for _, option := range options {
		option(c)
	}

	if c.batchSize <= 0 {
		return nil, errors.New("invalid batch size")
	}

	return c, nil
}

func (c *Client) Read(ctx context.Context, input table.Input) (*table.Table, error) {
	if ext := input.Ext(); ext != "" && !isSupported(ext) {
		return nil, table.ErrUnsupported
	}

	r, size := input.Content, input.Size

	if r == nil {
		if input.URL == "" {
			return nil, table.ErrEmptyInput
		}

		remote, err := openRemote(ctx, c.client, input.URL)

		if err != nil {
			return nil, err
		}

		r, size = remote, remote.size
	}

	f, err := parquet.OpenFile(r, size)

	if err != nil {
		return nil, err
	}

	return c.readFile(ctx, f)
}

func (c *Client) readFile(ctx context.Context, f *parquet.File) (*table.Table, error) {
	var columns []string

	for _, path := range f.Schema().Columns() {
		columns = append(columns, strings.Join(path, "."))
	}

	t := &table.Table{
		Columns: columns,
	}

	buf := make([]parquet.Row, c.batchSize)

	for _, rg := range f.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows := rg.Rows()

		for {
			n, err := rows.ReadRows(buf)

			for _, row := range buf[:n] {
				t.Records = append(t.Records, convertRow(row, len(columns)))
			}

			if errors.Is(err, io.EOF) {
				break
			}

			if err != nil {
				rows.Close()
				return nil, err
			}

			if n == 0 {
				break
			}
		}

		rows.Close()
	}

	return t, nil
}

func convertRow(row parquet.Row, width int) []any {
	record := make([]any, width)

	for _, v := range row {
		idx := v.Column()

		if idx < 0 || idx >= width {
			continue
		}

		record[idx] = convertValue(v)
	}

	return record
}

func convertValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}

	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}

	return v.String()
}

func isSupported(ext string) bool {
	return slices.Contains(SupportedExtensions, ext)
}
