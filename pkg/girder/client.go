package girder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultPageSize matches the server-side default limit of list endpoints.
const DefaultPageSize = 50

type Client struct {
	client *http.Client

	url string

	pageSize    int
	concurrency int

	tiles *lru.Cache[string, *TileInfo]
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid url")
	}

	c := &Client{
		client: http.DefaultClient,

		url: strings.TrimRight(url, "/"),

		pageSize:    DefaultPageSize,
		concurrency: 4,
	}

	for _, option := range options {
		option(c)
	}

	if c.pageSize <= 0 {
		return nil, errors.New("invalid page size")
	}

	return c, nil
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var result []Collection

	if err := c.get(ctx, "/collection", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) ListCollectionFolders(ctx context.Context, collectionID string) ([]Folder, error) {
	return c.listFolders(ctx, "collection", collectionID)
}

func (c *Client) ListSubFolders(ctx context.Context, folderID string) ([]Folder, error) {
	return c.listFolders(ctx, "folder", folderID)
}

func (c *Client) listFolders(ctx context.Context, parentType, parentID string) ([]Folder, error) {
	query := url.Values{
		"parentType": {parentType},
		"parentId":   {parentID},
	}

	var result []Folder

	if err := c.get(ctx, "/folder", query, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// ListItems returns one page of the items in a folder starting at offset.
func (c *Client) ListItems(ctx context.Context, folderID string, offset int) ([]Item, error) {
	query := url.Values{
		"folderId": {folderID},
		"offset":   {strconv.Itoa(offset)},
		"limit":    {strconv.Itoa(c.pageSize)},
	}

	var result []Item

	if err := c.get(ctx, "/item", query, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// ListAllItems pages through a folder until a short page is returned.
func (c *Client) ListAllItems(ctx context.Context, folderID string) ([]Item, error) {
	var result []Item

	for offset := 0; ; offset += c.pageSize {
		page, err := c.ListItems(ctx, folderID, offset)

		if err != nil {
			return nil, err
		}

		result = append(result, page...)

		if len(page) < c.pageSize {
			break
		}
	}

	return result, nil
}

func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var result Item

	if err := c.get(ctx, "/item/"+url.PathEscape(itemID), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) ListItemFiles(ctx context.Context, itemID string) ([]File, error) {
	var result []File

	if err := c.get(ctx, "/item/"+url.PathEscape(itemID)+"/files", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var result File

	if err := c.get(ctx, "/file/"+url.PathEscape(fileID), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ItemFileURL returns the inline download URL of a file.
func (c *Client) ItemFileURL(fileID string) string {
	return c.url + "/file/" + url.PathEscape(fileID) + "/download?contentDisposition=inline"
}

func (c *Client) ImageTileInfo(ctx context.Context, itemID string) (*TileInfo, error) {
	if c.tiles != nil {
		if info, ok := c.tiles.Get(itemID); ok {
			return info, nil
		}
	}

	var result TileInfo

	if err := c.get(ctx, "/item/"+url.PathEscape(itemID)+"/tiles", nil, &result); err != nil {
		return nil, err
	}

	if c.tiles != nil {
		c.tiles.Add(itemID, &result)
	}

	return &result, nil
}

// ImageTileURL returns the tile URL template with {z}, {x} and {y} placeholders.
func (c *Client) ImageTileURL(itemID string) string {
	return c.url + "/item/" + url.PathEscape(itemID) + "/tiles/zxy/{z}/{x}/{y}"
}

// FolderTree lists the folders of a collection and their descendants down to
// depth levels, fetching siblings concurrently. At most the configured
// concurrency of folder requests is in flight across all levels.
func (c *Client) FolderTree(ctx context.Context, collectionID string, depth int) ([]FolderNode, error) {
	folders, err := c.ListCollectionFolders(ctx, collectionID)

	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(c.concurrency))

	return c.expand(ctx, sem, folders, depth-1)
}

func (c *Client) expand(ctx context.Context, sem *semaphore.Weighted, folders []Folder, depth int) ([]FolderNode, error) {
	nodes := make([]FolderNode, len(folders))

	for i, f := range folders {
		nodes[i] = FolderNode{Folder: f}
	}

	if depth <= 0 {
		return nodes, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := range nodes {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}

			children, err := c.ListSubFolders(ctx, nodes[i].ID)
			sem.Release(1)

			if err != nil {
				return err
			}

			expanded, err := c.expand(ctx, sem, children, depth-1)

			if err != nil {
				return err
			}

			nodes[i].Children = expanded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return nodes, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.url + path

	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return convertError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// Error is a non-2xx response of the Girder API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%s: %s", http.StatusText(e.StatusCode), e.Message)
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	// {"message": "...", "type": "rest"}
	var body struct {
		Message string `json:"message"`
	}

	message := strings.TrimSpace(string(data))

	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		message = body.Message
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
