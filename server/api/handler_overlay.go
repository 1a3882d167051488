package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlascope/atlascope/pkg/annotation"
	"github.com/atlascope/atlascope/pkg/colors"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/otel"
	"github.com/atlascope/atlascope/pkg/points"
	"github.com/atlascope/atlascope/pkg/render"
	"github.com/atlascope/atlascope/pkg/table"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 256 << 20

type featureSource func(r *http.Request) (table.Input, *table.Input, error)

// fileSource reads features from a Girder file, optionally joined with the
// columns of the file named by the props parameter.
func (h *Handler) fileSource(r *http.Request) (table.Input, *table.Input, error) {
	input, err := h.fileInput(r.Context(), chi.URLParam(r, "id"))

	if err != nil {
		return table.Input{}, nil, err
	}

	if id := r.FormValue("props"); id != "" {
		props, err := h.fileInput(r.Context(), id)

		if err != nil {
			return table.Input{}, nil, err
		}

		return input, &props, nil
	}

	return input, nil, nil
}

func (h *Handler) fileInput(ctx context.Context, id string) (table.Input, error) {
	g, err := h.Girder()

	if err != nil {
		return table.Input{}, err
	}

	f, err := g.GetFile(ctx, id)

	if err != nil {
		return table.Input{}, err
	}

	return table.Input{
		Name: f.Name,
		URL:  g.ItemFileURL(f.ID),
	}, nil
}

// uploadSource reads features from the request body or its "file" form part,
// optionally joined with the "props" form part.
func (h *Handler) uploadSource(r *http.Request) (table.Input, *table.Input, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		input, err := readPart(r, "file")

		if err != nil {
			return table.Input{}, nil, err
		}

		props, err := readPart(r, "props")

		if errors.Is(err, http.ErrMissingFile) {
			return input, nil, nil
		}

		if err != nil {
			return table.Input{}, nil, err
		}

		return input, &props, nil
	}

	contentDisposition := r.Header.Get("Content-Disposition")

	_, params, _ := mime.ParseMediaType(contentDisposition)

	filename := params["filename*"]
	filename = strings.TrimPrefix(filename, "UTF-8''")
	filename = strings.TrimPrefix(filename, "utf-8''")

	if filename == "" {
		filename = params["filename"]
	}

	if filename == "" {
		filename = r.FormValue("filename")
	}

	data, err := io.ReadAll(r.Body)

	if err != nil {
		return table.Input{}, nil, err
	}

	if len(data) == 0 {
		return table.Input{}, nil, table.ErrEmptyInput
	}

	return table.Input{
		Name:    filename,
		Content: bytes.NewReader(data),
		Size:    int64(len(data)),
	}, nil, nil
}

func readPart(r *http.Request, name string) (table.Input, error) {
	file, header, err := r.FormFile(name)

	if err != nil {
		return table.Input{}, errors.Join(table.ErrEmptyInput, err)
	}

	defer file.Close()

	data, err := io.ReadAll(file)

	if err != nil {
		return table.Input{}, err
	}

	return table.Input{
		Name:    header.Filename,
		Content: bytes.NewReader(data),
		Size:    int64(len(data)),
	}, nil
}

func (h *Handler) readShapes(r *http.Request, source featureSource) (overlay.Mode, []overlay.Shape, error) {
	input, props, err := source(r)

	if err != nil {
		return "", nil, err
	}

	t, err := h.ReadFeatures(r.Context(), input, props)

	if err != nil {
		return "", nil, err
	}

	mode := h.Mode()

	if val := r.FormValue("mode"); val != "" {
		mode, err = overlay.ParseMode(val)

		if err != nil {
			return "", nil, err
		}
	}

	b, err := h.Builder(mode, t)

	if err != nil {
		return "", nil, err
	}

	shapes, err := b.BuildTable(t)

	if err != nil {
		return "", nil, err
	}

	otel.RecordShapes(r.Context(), mode, shapes)

	slog.DebugContext(r.Context(), "overlay built", "input", input.Name, "mode", mode, "rows", t.Len(), "shapes", len(shapes))

	return mode, shapes, nil
}

func (h *Handler) serveOverlay(source featureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, shapes, err := h.readShapes(r, source)

		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}

		writeJson(w, Overlay{
			Mode:   mode,
			Shapes: shapes,
		})
	}
}

func (h *Handler) servePoints(source featureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method := h.PointsMethod()

		if val := r.FormValue("method"); val != "" {
			m, err := points.ParseMethod(val)

			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}

			method = m
		}

		_, shapes, err := h.readShapes(r, source)

		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}

		normalized := points.Normalize(overlay.Centroids(shapes), method)

		writeJson(w, Points{
			Method: method,
			Points: toPoints(normalized),
		})
	}
}

func (h *Handler) serveAnnotation(source featureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, shapes, err := h.readShapes(r, source)

		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}

		options := &annotation.Options{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
		}

		writeJson(w, annotation.FromShapes(shapes, options))
	}
}

func (h *Handler) servePreview(source featureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, shapes, err := h.readShapes(r, source)

		if err != nil {
			writeError(w, errorStatus(err), err)
			return
		}

		options, err := previewOptions(r)

		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		renderer, err := render.New(options...)

		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		var buf bytes.Buffer

		if err := renderer.Render(&buf, shapes); err != nil {
			if errors.Is(err, render.ErrEmpty) {
				writeError(w, http.StatusNotFound, err)
				return
			}

			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}
}

const maxPreviewSize = 4096

// previewOptions reads the optional width, height, padding and background
// parameters of a preview request.
func previewOptions(r *http.Request) ([]render.Option, error) {
	width, height := 1024, 1024

	for name, target := range map[string]*int{"width": &width, "height": &height} {
		val := r.FormValue(name)

		if val == "" {
			continue
		}

		n, err := strconv.Atoi(val)

		if err != nil || n < 1 || n > maxPreviewSize {
			return nil, fmt.Errorf("invalid %s: %q", name, val)
		}

		*target = n
	}

	options := []render.Option{
		render.WithSize(width, height),
	}

	if val := r.FormValue("padding"); val != "" {
		padding, err := strconv.ParseFloat(val, 64)

		if err != nil {
			return nil, fmt.Errorf("invalid padding: %q", val)
		}

		options = append(options, render.WithPadding(padding))
	}

	if val := r.FormValue("background"); val != "" {
		if !colors.Valid(val) {
			return nil, fmt.Errorf("invalid background: %q", val)
		}

		options = append(options, render.WithBackground(val))
	}

	return options, nil
}

func (h *Handler) handleFileOverlay(w http.ResponseWriter, r *http.Request) {
	h.serveOverlay(h.fileSource)(w, r)
}

func (h *Handler) handleFilePoints(w http.ResponseWriter, r *http.Request) {
	h.servePoints(h.fileSource)(w, r)
}

func (h *Handler) handleFileAnnotation(w http.ResponseWriter, r *http.Request) {
	h.serveAnnotation(h.fileSource)(w, r)
}

func (h *Handler) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	h.servePreview(h.fileSource)(w, r)
}

func (h *Handler) handleOverlay(w http.ResponseWriter, r *http.Request) {
	h.serveOverlay(h.uploadSource)(w, r)
}

func (h *Handler) handlePoints(w http.ResponseWriter, r *http.Request) {
	h.servePoints(h.uploadSource)(w, r)
}

func (h *Handler) handleAnnotation(w http.ResponseWriter, r *http.Request) {
	h.serveAnnotation(h.uploadSource)(w, r)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	h.servePreview(h.uploadSource)(w, r)
}
