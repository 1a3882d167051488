package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlascope/atlascope/config"
	"github.com/atlascope/atlascope/pkg/feature"
	"github.com/atlascope/atlascope/pkg/girder"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/points"
	"github.com/atlascope/atlascope/pkg/roi"
	"github.com/atlascope/atlascope/pkg/table"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	*config.Config
}

func New(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		Config: cfg,
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Get("/collections", h.handleCollections)
	r.Get("/collections/{id}/folders", h.handleCollectionFolders)
	r.Get("/collections/{id}/tree", h.handleFolderTree)

	r.Get("/folders/{id}/folders", h.handleSubFolders)
	r.Get("/folders/{id}/items", h.handleItems)

	r.Get("/items/{id}", h.handleItem)
	r.Get("/items/{id}/files", h.handleItemFiles)
	r.Get("/items/{id}/tiles", h.handleItemTiles)

	r.Get("/files/{id}/overlay", h.handleFileOverlay)
	r.Get("/files/{id}/points", h.handleFilePoints)
	r.Get("/files/{id}/annotation", h.handleFileAnnotation)
	r.Get("/files/{id}/preview.png", h.handleFilePreview)

	r.Post("/overlay", h.handleOverlay)
	r.Post("/points", h.handlePoints)
	r.Post("/annotation", h.handleAnnotation)
	r.Post("/preview.png", h.handlePreview)
}

func writeJson(w http.ResponseWriter, v any) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var apiErr *girder.Error

	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return apiErr.StatusCode
		}

		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, table.ErrUnsupported):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, table.ErrEmptyInput),
		errors.Is(err, points.ErrUnknownMethod),
		errors.Is(err, overlay.ErrUnknownMode):
		return http.StatusBadRequest

	case errors.Is(err, feature.ErrMissingColumn),
		errors.Is(err, feature.ErrInvalidValue),
		errors.Is(err, feature.ErrDegenerateGeometry),
		errors.Is(err, roi.ErrMalformedToken),
		errors.Is(err, roi.ErrDegenerateRegion):
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
