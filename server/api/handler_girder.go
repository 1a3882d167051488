package api

import (
	"net/http"
	"strconv"

	"github.com/atlascope/atlascope/pkg/girder"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) girder(w http.ResponseWriter) (*girder.Client, bool) {
	g, err := h.Girder()

	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return nil, false
	}

	return g, true
}

func (h *Handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	result, err := g.ListCollections(r.Context())

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, orEmpty(result))
}

func (h *Handler) handleCollectionFolders(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	result, err := g.ListCollectionFolders(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, orEmpty(result))
}

func (h *Handler) handleFolderTree(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	depth := 2

	if val := r.FormValue("depth"); val != "" {
		n, err := strconv.Atoi(val)

		if err != nil || n < 1 || n > 8 {
			writeError(w, http.StatusBadRequest, nil)
			return
		}

		depth = n
	}

	result, err := g.FolderTree(r.Context(), chi.URLParam(r, "id"), depth)

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, orEmpty(result))
}

func (h *Handler) handleSubFolders(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	result, err := g.ListSubFolders(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, orEmpty(result))
}

// handleItems returns one page when offset is given, otherwise every item.
func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	var result []girder.Item
	var err error

	if val := r.FormValue("offset"); val != "" {
		offset, perr := strconv.Atoi(val)

		if perr != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, nil)
			return
		}

		result, err = g.ListItems(r.Context(), id, offset)
	} else {
		result, err = g.ListAllItems(r.Context(), id)
	}

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, orEmpty(result))
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	item, err := g.GetItem(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, Item{
		Item:  *item,
		Image: item.IsImage(),
	})
}

func (h *Handler) handleItemFiles(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	files, err := g.ListItemFiles(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	result := make([]File, 0, len(files))

	for _, f := range files {
		result = append(result, File{
			File: f,
			URL:  g.ItemFileURL(f.ID),
		})
	}

	writeJson(w, result)
}

func (h *Handler) handleItemTiles(w http.ResponseWriter, r *http.Request) {
	g, ok := h.girder(w)

	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	info, err := g.ImageTileInfo(r.Context(), id)

	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	writeJson(w, Tiles{
		TileInfo: *info,
		URL:      g.ImageTileURL(id),
	})
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
