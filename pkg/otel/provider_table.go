package otel

import (
	"context"
	"strings"
	"time"

	"github.com/atlascope/atlascope/pkg/table"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type TableProvider interface {
	Observable
	table.Provider
}

type observableTableProvider struct {
	name string

	provider table.Provider

	rowsMetric     metric.Int64Counter
	durationMetric metric.Float64Histogram
}

func NewTableProvider(name string, p table.Provider) TableProvider {
	meter := otel.Meter(instrumentationName)

	rowsMetric, _ := meter.Int64Counter("atlascope.table.rows",
		metric.WithDescription("Rows decoded from feature tables"),
	)

	durationMetric, _ := meter.Float64Histogram("atlascope.table.read.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of feature table reads"),
	)

	return &observableTableProvider{
		name: strings.ToLower(name),

		provider: p,

		rowsMetric:     rowsMetric,
		durationMetric: durationMetric,
	}
}

func (p *observableTableProvider) otelSetup() {
}

func (p *observableTableProvider) Read(ctx context.Context, input table.Input) (*table.Table, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "read "+p.name)
	defer span.End()

	timestamp := time.Now()

	result, err := p.provider.Read(ctx, input)

	attrs := []KeyValue{
		attribute.String("table.provider", p.name),
		attribute.String("table.format", input.Ext()),
	}

	if EnableDebug {
		span.SetAttributes(
			attribute.String("table.name", input.Name),
			attribute.String("table.url", input.URL),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	p.durationMetric.Record(ctx, time.Since(timestamp).Seconds(), metric.WithAttributes(attrs...))
	p.rowsMetric.Add(ctx, int64(result.Len()), metric.WithAttributes(attrs...))

	span.SetAttributes(
		attribute.Int("table.columns", len(result.Columns)),
		attribute.Int("table.rows", result.Len()),
	)

	return result, nil
}
