package api_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlascope/atlascope/config"
	"github.com/atlascope/atlascope/pkg/girder"
	"github.com/atlascope/atlascope/server/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const nuclei = `roiname,Unconstrained.Identifier.CentroidX,Unconstrained.Identifier.CentroidY,Size.MajorAxisLength,Size.MinorAxisLength,Orientation.Orientation,Unconstrained.Identifier.Xmin,Unconstrained.Identifier.Xmax,Unconstrained.Identifier.Ymin,Unconstrained.Identifier.Ymax
TCGA_left-100_top-200_right-300_bottom-400,5,5,2,1,0.5,0,10,0,5
TCGA_left-100_top-200_right-300_bottom-400,10,20,4,2,0.25,5,15,10,30
`

const props = `Unnamed: 0,Size.Area
0,12.5
1,40
`

func fakeGirder(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	files := map[string]girder.File{
		"f1": {ID: "f1", Name: "nuclei.csv", ItemID: "i1"},
		"f2": {ID: "f2", Name: "props.csv", ItemID: "i1"},
	}

	content := map[string]string{
		"f1": nuclei,
		"f2": props,
	}

	mux.HandleFunc("GET /api/v1/collection", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]girder.Collection{{ID: "c1", Name: "TCGA"}})
	})

	mux.HandleFunc("GET /api/v1/folder", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]girder.Folder{})
	})

	mux.HandleFunc("GET /api/v1/item/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(girder.Item{ID: r.PathValue("id"), Name: "slide.svs", LargeImage: &girder.LargeImage{FileID: "f0"}})
	})

	mux.HandleFunc("GET /api/v1/item/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]girder.File{files["f1"]})
	})

	mux.HandleFunc("GET /api/v1/item/{id}/tiles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"levels": 3, "sizeX": 1000, "sizeY": 800, "tileWidth": 256, "tileHeight": 256}`))
	})

	mux.HandleFunc("GET /api/v1/file/{id}", func(w http.ResponseWriter, r *http.Request) {
		f, ok := files[r.PathValue("id")]

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Resource not found."}`))
			return
		}

		json.NewEncoder(w).Encode(f)
	})

	mux.HandleFunc("GET /api/v1/file/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content[r.PathValue("id")]))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newHandler(t *testing.T, girderURL string) http.Handler {
	return newHandlerWithConfig(t, girderURL, "overlay:\n  color: \"#00FF00\"\n")
}

func newHandlerWithConfig(t *testing.T, girderURL, data string) http.Handler {
	t.Helper()

	if girderURL != "" {
		data += "girder:\n  url: " + girderURL + "/api/v1\n"
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Parse(path)
	require.NoError(t, err)

	h, err := api.New(cfg)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Attach(r)

	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	return rec
}

func TestBrowse(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/collections")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"TCGA"`)

	rec = get(t, h, "/collections/c1/folders")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = get(t, h, "/items/i1/files")
	require.Equal(t, http.StatusOK, rec.Code)

	var files []api.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	require.True(t, strings.HasSuffix(files[0].URL, "/file/f1/download?contentDisposition=inline"))

	rec = get(t, h, "/items/i1")
	require.Equal(t, http.StatusOK, rec.Code)

	var item api.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, "slide.svs", item.Name)
	require.True(t, item.Image)

	rec = get(t, h, "/items/i1/tiles")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/item/i1/tiles/zxy/{z}/{x}/{y}")
}

func TestGirderNotConfigured(t *testing.T) {
	h := newHandler(t, "")

	rec := get(t, h, "/collections")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFileOverlay(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/files/f1/overlay")
	require.Equal(t, http.StatusOK, rec.Code)

	var result api.Overlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Equal(t, "ellipse", string(result.Mode))
	require.Len(t, result.Shapes, 2)

	m := result.Shapes[0].Marker
	require.Equal(t, 110.0, m.Center.X)
	require.Equal(t, 210.0, m.Center.Y)
	require.Equal(t, -0.5, m.Rotation)
	require.Equal(t, 0.5, m.SymbolValue)

	rec = get(t, h, "/files/f1/overlay?mode=box")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Equal(t, "box", string(result.Mode))
	require.Len(t, result.Shapes, 2)
	require.Equal(t, 100.0, result.Shapes[0].Polygon.Points[0].X)
	require.Equal(t, 200.0, result.Shapes[0].Polygon.Points[0].Y)

	rec = get(t, h, "/files/f1/overlay?mode=circle")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/files/missing/overlay")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileOverlayWithProps(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/files/f1/overlay?props=f2")
	require.Equal(t, http.StatusOK, rec.Code)

	var result api.Overlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Equal(t, 40.0, result.Shapes[1].Feature.Values["Size.Area"])
}

func TestFilePoints(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/files/f1/points")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"method": "literal", "points": [{"x": 0, "y": 0}, {"x": null, "y": null}]}`, rec.Body.String())

	rec = get(t, h, "/files/f1/points?method=minmax")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"method": "minmax", "points": [{"x": 0, "y": 0}, {"x": 1, "y": 1}]}`, rec.Body.String())

	rec = get(t, h, "/files/f1/points?method=zscore")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileAnnotation(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/files/f1/annotation?name=nuclei")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Name     string
		Elements []struct {
			Type      string
			LineColor string
		}
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	require.Equal(t, "nuclei", doc.Name)
	require.Len(t, doc.Elements, 2)
	require.Equal(t, "ellipse", doc.Elements[0].Type)
	require.Equal(t, "#00FF00", doc.Elements[0].LineColor)
}

func TestFilePreview(t *testing.T) {
	h := newHandler(t, fakeGirder(t).URL)

	rec := get(t, h, "/files/f1/preview.png")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	_, err := png.Decode(rec.Body)
	require.NoError(t, err)

	rec = get(t, h, "/files/f1/preview.png?width=300&height=150&background=%23000000")
	require.Equal(t, http.StatusOK, rec.Code)

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 300, img.Bounds().Dx())
	require.Equal(t, 150, img.Bounds().Dy())

	for _, query := range []string{"width=0", "height=x", "width=100000", "background=black", "padding=500&width=200"} {
		rec = get(t, h, "/files/f1/preview.png?"+query)
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestUploadOverlay(t *testing.T) {
	h := newHandler(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "nuclei.csv")
	require.NoError(t, err)

	io.WriteString(part, nuclei)
	mw.WriteField("mode", "box")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/overlay", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result api.Overlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.Equal(t, "box", string(result.Mode))
	require.Len(t, result.Shapes, 2)
}

func TestUploadRaw(t *testing.T) {
	h := newHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/points?filename=nuclei.csv", strings.NewReader(nuclei))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"literal"`)

	req = httptest.NewRequest(http.MethodPost, "/overlay?filename=nuclei.xlsx", strings.NewReader("x"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	return rec
}

func TestUploadNonFiniteValues(t *testing.T) {
	h := newHandler(t, "")

	data := `roiname,Unconstrained.Identifier.CentroidX,Unconstrained.Identifier.CentroidY,Size.MajorAxisLength,Size.MinorAxisLength,Orientation.Orientation,Size.Area
left-100_top-200,5,5,2,1,0.5,NaN
left-100_top-200,6,6,2,1,0.5,inf
`

	rec := post(t, h, "/overlay?filename=nuclei.csv", data)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result struct {
		Shapes []struct {
			Feature struct {
				Values map[string]any
			}
		}
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Shapes, 2)
	require.Contains(t, result.Shapes[0].Feature.Values, "Size.Area")
	require.Nil(t, result.Shapes[0].Feature.Values["Size.Area"])
	require.Nil(t, result.Shapes[1].Feature.Values["Size.Area"])

	rec = post(t, h, "/annotation?filename=nuclei.csv", data)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, json.Valid(rec.Body.Bytes()))
	require.NotEmpty(t, rec.Body.Bytes())
}

func TestUploadNonFiniteGeometry(t *testing.T) {
	h := newHandler(t, "")

	data := `roiname,Unconstrained.Identifier.CentroidX,Unconstrained.Identifier.CentroidY,Size.MajorAxisLength,Size.MinorAxisLength,Orientation.Orientation
left-100_top-200,5,5,2,1,NaN
`

	for _, path := range []string{"/overlay", "/annotation", "/points"} {
		rec := post(t, h, path+"?filename=nuclei.csv", data)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
	}

	data = `roiname,Unconstrained.Identifier.Xmin,Unconstrained.Identifier.Xmax,Unconstrained.Identifier.Ymin,Unconstrained.Identifier.Ymax
left-100_top-200,0,NaN,0,5
`

	rec := post(t, h, "/overlay?filename=nuclei.csv&mode=box", data)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPointsWithRegionOutline(t *testing.T) {
	h := newHandlerWithConfig(t, "", "overlay:\n  region_color: \"#FF0000\"\n")

	rec := post(t, h, "/overlay?filename=nuclei.csv", nuclei)
	require.Equal(t, http.StatusOK, rec.Code)

	var result api.Overlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Shapes, 3)
	require.Equal(t, "region", string(result.Shapes[0].Kind))

	for _, method := range []string{"literal", "minmax"} {
		rec = post(t, h, "/points?filename=nuclei.csv&method="+method, nuclei)
		require.Equal(t, http.StatusOK, rec.Code)

		var points api.Points
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
		require.Len(t, points.Points, 2, method)
	}

	rec = post(t, h, "/points?filename=nuclei.csv&method=minmax", nuclei)
	require.JSONEq(t, `{"method": "minmax", "points": [{"x": 0, "y": 0}, {"x": 1, "y": 1}]}`, rec.Body.String())
}
