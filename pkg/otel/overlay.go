package otel

import (
	"context"

	"github.com/atlascope/atlascope/pkg/overlay"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var shapesMetric, _ = otel.Meter(instrumentationName).Int64Counter("atlascope.overlay.shapes",
	metric.WithDescription("Overlay shapes built from feature tables"),
)

// RecordShapes counts built object shapes per kind and mode. Region outlines
// are not counted.
func RecordShapes(ctx context.Context, mode overlay.Mode, shapes []overlay.Shape) {
	counts := map[overlay.Kind]int64{}

	for _, s := range shapes {
		if s.Kind == overlay.KindRegion {
			continue
		}

		counts[s.Kind]++
	}

	for kind, n := range counts {
		shapesMetric.Add(ctx, n, metric.WithAttributes(
			attribute.String("overlay.mode", string(mode)),
			attribute.String("overlay.kind", string(kind)),
		))
	}
}
