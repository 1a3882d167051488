package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// remoteFile reads an HTTP resource through byte-range requests so that only
// the footer and the needed column chunks are transferred.
type remoteFile struct {
	ctx    context.Context
	client *http.Client

	url  string
	size int64
}

func openRemote(ctx context.Context, client *http.Client, url string) (*remoteFile, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("range requests not supported: %s", resp.Status)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))

	if err != nil {
		return nil, err
	}

	return &remoteFile{
		ctx:    ctx,
		client: client,

		url:  url,
		size: size,
	}, nil
}

// parseContentRange returns the total size of "bytes 0-0/1234".
func parseContentRange(val string) (int64, error) {
	_, total, ok := strings.Cut(val, "/")

	if !ok || total == "*" {
		return 0, errors.New("unknown content length")
	}

	return strconv.ParseInt(total, 10, 64)
}

func (f *remoteFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= f.size {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	end := off + int64(len(p)) - 1

	if end >= f.size {
		end = f.size - 1
	}

	req, _ := http.NewRequestWithContext(f.ctx, http.MethodGet, f.url, nil)
	req.Header.Set("Range", "bytes="+strconv.FormatInt(off, 10)+"-"+strconv.FormatInt(end, 10))

	resp, err := f.client.Do(req)

	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("range %d-%d: %s", off, end, resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:end-off+1])

	if err != nil {
		return n, err
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}
