package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/atlascope/atlascope/pkg/table"
)

var _ table.Provider = &Client{}

type Client struct {
	client *http.Client

	comma rune
}

func New(options ...Option) (*Client, error) {
	c := &Client{
		client: http.DefaultClient,

		comma: ',',
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *Client) Read(ctx context.Context, input table.Input) (*table.Table, error) {
	if ext := input.Ext(); ext != "" && !slices.Contains(SupportedExtensions, ext) {
		return nil, table.ErrUnsupported
	}

	if input.Content != nil {
		return c.decode(io.NewSectionReader(input.Content, 0, input.Size))
	}

	if input.URL == "" {
		return nil, table.ErrEmptyInput
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	return c.decode(resp.Body)
}

func (c *Client) decode(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.comma
	reader.ReuseRecord = true

	header, err := reader.Read()

	if err != nil {
		if errors.Is(err, io.EOF) {
			return &table.Table{}, nil
		}

		return nil, err
	}

	// pandas writes its index as an unnamed first column
	var keep []int
	var columns []string

	for i, name := range header {
		name = strings.TrimSpace(name)

		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}

		keep = append(keep, i)
		columns = append(columns, name)
	}

	t := &table.Table{
		Columns: columns,
	}

	for {
		record, err := reader.Read()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		values := make([]any, len(keep))

		for i, idx := range keep {
			if idx < len(record) {
				values[i] = parseValue(record[idx])
			}
		}

		t.Records = append(t.Records, values)
	}

	return t, nil
}

// Merge joins the columns of props onto meta row by row, skipping columns
// meta already has. The shorter table is padded with nulls.
func Merge(meta, props *table.Table) *table.Table {
	var extra []int

	for i, c := range props.Columns {
		if !slices.Contains(meta.Columns, c) {
			extra = append(extra, i)
		}
	}

	result := &table.Table{
		Columns: slices.Clone(meta.Columns),
	}

	for _, i := range extra {
		result.Columns = append(result.Columns, props.Columns[i])
	}

	rows := max(meta.Len(), props.Len())

	for r := range rows {
		values := make([]any, len(result.Columns))

		if r < meta.Len() {
			copy(values[:len(meta.Columns)], meta.Records[r])
		}

		if r < props.Len() {
			for j, i := range extra {
				if i < len(props.Records[r]) {
					values[len(meta.Columns)+j] = props.Records[r][i]
				}
			}
		}

		result.Records = append(result.Records, values)
	}

	return result
}

func parseValue(val string) any {
	val = strings.TrimSpace(val)

	if val == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}

	return val
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	if len(data) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
}
