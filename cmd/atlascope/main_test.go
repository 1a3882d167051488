package main

import (
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const nuclei = `roiname,Unconstrained.Identifier.CentroidX,Unconstrained.Identifier.CentroidY,Size.MajorAxisLength,Size.MinorAxisLength,Orientation.Orientation
left-100_top-200_right-300_bottom-400,5,5,2,1,0.5
`

func TestConvert(t *testing.T) {
	dir := t.TempDir()

	input := filepath.Join(dir, "nuclei.csv")
	require.NoError(t, os.WriteFile(input, []byte(nuclei), 0o600))

	for format, check := range map[string]func(t *testing.T, data []byte){
		"json": func(t *testing.T, data []byte) {
			var result struct {
				Mode   string
				Shapes []map[string]any
			}

			require.NoError(t, json.Unmarshal(data, &result))
			require.Equal(t, "ellipse", result.Mode)
			require.Len(t, result.Shapes, 1)
		},

		"annotation": func(t *testing.T, data []byte) {
			var result struct {
				Name     string
				Elements []map[string]any
			}

			require.NoError(t, json.Unmarshal(data, &result))
			require.Equal(t, "nuclei", result.Name)
			require.Len(t, result.Elements, 1)
		},

		"png": func(t *testing.T, data []byte) {
			require.Equal(t, "\x89PNG", string(data[:4]))
		},
	} {
		t.Run(format, func(t *testing.T) {
			output := filepath.Join(dir, "out."+format)

			err := convert(context.Background(), []string{"-input", input, "-format", format, "-o", output})
			require.NoError(t, err)

			data, err := os.ReadFile(output)
			require.NoError(t, err)

			check(t, data)
		})
	}
}

func TestConvertInvalid(t *testing.T) {
	require.Error(t, convert(context.Background(), nil))

	dir := t.TempDir()

	input := filepath.Join(dir, "nuclei.csv")
	require.NoError(t, os.WriteFile(input, []byte(nuclei), 0o600))

	require.Error(t, convert(context.Background(), []string{"-input", input, "-mode", "circle"}))
	require.Error(t, convert(context.Background(), []string{"-input", input, "-format", "svg", "-o", filepath.Join(dir, "x")}))
}

func TestConvertPreviewSize(t *testing.T) {
	dir := t.TempDir()

	input := filepath.Join(dir, "nuclei.csv")
	require.NoError(t, os.WriteFile(input, []byte(nuclei), 0o600))

	output := filepath.Join(dir, "preview.png")

	err := convert(context.Background(), []string{"-input", input, "-format", "png", "-width", "320", "-height", "200", "-padding", "4", "-background", "#000000", "-o", output})
	require.NoError(t, err)

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	require.Equal(t, 320, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	require.Zero(t, r+g+b)

	err = convert(context.Background(), []string{"-input", input, "-format", "png", "-width", "0", "-o", output})
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	require.Equal(t, 2, run(nil))
	require.Equal(t, 2, run([]string{"unknown"}))
	require.Equal(t, 0, run([]string{"version"}))
	require.Equal(t, 1, run([]string{"overlay"}))
}
