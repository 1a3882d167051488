package main

import (
	"encoding/json"
	"io"

	"github.com/atlascope/atlascope/pkg/overlay"
)

func writeShapes(w io.Writer, mode overlay.Mode, shapes []overlay.Shape) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(struct {
		Mode   overlay.Mode    `json:"mode"`
		Shapes []overlay.Shape `json:"shapes"`
	}{
		Mode:   mode,
		Shapes: shapes,
	})
}
