package girder_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atlascope/atlascope/pkg/girder"

	"github.com/stretchr/testify/require"
)

type fakeGirder struct {
	items     int
	tileCalls atomic.Int64

	// fanout gives every folder three children down to ids of this length
	fanout int

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeGirder) handler() http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /api/v1/collection", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []girder.Collection{{ID: "c1", Name: "TCGA", Public: true}})
	})

	mux.HandleFunc("GET /api/v1/folder", func(w http.ResponseWriter, r *http.Request) {
		parentType := r.URL.Query().Get("parentType")
		parentID := r.URL.Query().Get("parentId")

		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)

		for {
			peak := f.maxInFlight.Load()

			if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
				break
			}
		}

		switch {
		case parentType == "folder" && f.fanout > 0:
			time.Sleep(5 * time.Millisecond)

			if len(parentID) >= f.fanout {
				writeJSON(w, []girder.Folder{})
				return
			}

			writeJSON(w, []girder.Folder{{ID: parentID + "a"}, {ID: parentID + "b"}, {ID: parentID + "c"}})

		case parentType == "collection" && parentID == "c1":
			writeJSON(w, []girder.Folder{{ID: "f1", Name: "Examples"}, {ID: "f2", Name: "Other"}})
		case parentType == "folder" && parentID == "f1":
			writeJSON(w, []girder.Folder{{ID: "f1a", Name: "case-a"}, {ID: "f1b", Name: "case-b"}})
		default:
			writeJSON(w, []girder.Folder{})
		}
	})

	mux.HandleFunc("GET /api/v1/item", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		items := []girder.Item{}

		for i := offset; i < min(offset+limit, f.items); i++ {
			items = append(items, girder.Item{ID: fmt.Sprintf("i%d", i), Name: fmt.Sprintf("item-%d", i)})
		}

		writeJSON(w, items)
	})

	mux.HandleFunc("GET /api/v1/item/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []girder.File{{ID: "file1", Name: "nuclei.parquet", ItemID: r.PathValue("id")}})
	})

	mux.HandleFunc("GET /api/v1/item/{id}/tiles", func(w http.ResponseWriter, r *http.Request) {
		f.tileCalls.Add(1)

		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "No large image file in this item.", "type": "rest"}`))
			return
		}

		w.Write([]byte(`{"levels": 9, "magnification": 40, "mm_x": 0.00025, "mm_y": 0.00025, "sizeX": 100000, "sizeY": 80000, "tileWidth": 256, "tileHeight": 256}`))
	})

	mux.HandleFunc("GET /api/v1/item/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, girder.Item{ID: r.PathValue("id"), Name: "slide.svs", LargeImage: &girder.LargeImage{FileID: "file0"}})
	})

	return mux
}

func newClient(t *testing.T, f *fakeGirder, options ...girder.Option) *girder.Client {
	server := httptest.NewServer(f.handler())
	t.Cleanup(server.Close)

	options = append([]girder.Option{girder.WithClient(server.Client())}, options...)

	c, err := girder.New(server.URL+"/api/v1/", options...)
	require.NoError(t, err)

	return c
}

func TestListCollections(t *testing.T) {
	c := newClient(t, &fakeGirder{})

	result, err := c.ListCollections(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 1)
	require.Equal(t, "TCGA", result[0].Name)
}

func TestListFolders(t *testing.T) {
	c := newClient(t, &fakeGirder{})
	ctx := context.Background()

	folders, err := c.ListCollectionFolders(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, folders, 2)

	sub, err := c.ListSubFolders(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, "case-a", sub[0].Name)
}

func TestListAllItems(t *testing.T) {
	c := newClient(t, &fakeGirder{items: 123})

	items, err := c.ListAllItems(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, items, 123)
	require.Equal(t, "i122", items[122].ID)

	page, err := c.ListItems(context.Background(), "f1", 100)
	require.NoError(t, err)
	require.Len(t, page, 23)
}

func TestListAllItemsExactPage(t *testing.T) {
	c := newClient(t, &fakeGirder{items: 20}, girder.WithPageSize(10))

	items, err := c.ListAllItems(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, items, 20)
}

func TestItemFiles(t *testing.T) {
	c := newClient(t, &fakeGirder{})

	files, err := c.ListItemFiles(context.Background(), "i1")
	require.NoError(t, err)
	require.Equal(t, "i1", files[0].ItemID)

	require.Equal(t, c.URL()+"/file/file1/download?contentDisposition=inline", c.ItemFileURL("file1"))
	require.Equal(t, c.URL()+"/item/i1/tiles/zxy/{z}/{x}/{y}", c.ImageTileURL("i1"))

	item, err := c.GetItem(context.Background(), "i1")
	require.NoError(t, err)
	require.True(t, item.IsImage())
}

func TestImageTileInfo(t *testing.T) {
	f := &fakeGirder{}
	c := newClient(t, f, girder.WithCache(8))

	for range 3 {
		info, err := c.ImageTileInfo(context.Background(), "i1")
		require.NoError(t, err)

		require.Equal(t, 100000, info.SizeX)
		require.Equal(t, 9, info.Levels)
		require.Equal(t, 40.0, *info.Magnification)
	}

	require.Equal(t, int64(1), f.tileCalls.Load())

	_, err := c.ImageTileInfo(context.Background(), "missing")

	var apiErr *girder.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "No large image file in this item.", apiErr.Message)
}

func TestFolderTree(t *testing.T) {
	c := newClient(t, &fakeGirder{}, girder.WithConcurrency(2))

	tree, err := c.FolderTree(context.Background(), "c1", 2)
	require.NoError(t, err)

	require.Len(t, tree, 2)
	require.Equal(t, "f1", tree[0].ID)
	require.Len(t, tree[0].Children, 2)
	require.Empty(t, tree[1].Children)

	flat, err := c.FolderTree(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Empty(t, flat[0].Children)
}

func TestFolderTreeConcurrency(t *testing.T) {
	f := &fakeGirder{fanout: 5}
	c := newClient(t, f, girder.WithConcurrency(2))

	tree, err := c.FolderTree(context.Background(), "c1", 4)
	require.NoError(t, err)

	require.Len(t, tree, 2)
	require.Len(t, tree[0].Children, 3)
	require.Len(t, tree[0].Children[0].Children, 3)
	require.Len(t, tree[0].Children[0].Children[0].Children, 3)

	require.LessOrEqual(t, f.maxInFlight.Load(), int64(2))
}

func TestNew(t *testing.T) {
	_, err := girder.New("")
	require.Error(t, err)

	_, err = girder.New("http://localhost", girder.WithPageSize(0))
	require.Error(t, err)
}
