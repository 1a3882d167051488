package otel

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

type KeyValue = attribute.KeyValue

// signal installs the global provider of one OTLP signal.
type signal struct {
	name  string
	setup func(ctx context.Context, resource *sdkresource.Resource) (shutdown, error)
}

// signals are set up in order. Traces and metrics come first so that the
// bridged logger can correlate records with active spans.
var signals = []signal{
	{"TRACES", setupTraces},
	{"METRICS", setupMetrics},
	{"LOGS", setupLogs},
}

// exporter builds the gRPC or HTTP exporter of the named signal, following the
// per-signal OTEL_EXPORTER_OTLP_*_PROTOCOL override before the global one.
// HTTP is the default.
func exporter[E any](name string, grpc, http func() (E, error)) (E, error) {
	if protocol(name) == "grpc" {
		return grpc()
	}

	return http()
}

func protocol(signal string) string {
	for _, key := range []string{"OTEL_EXPORTER_OTLP_" + signal + "_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL"} {
		if val := os.Getenv(key); val != "" {
			return strings.ToLower(val)
		}
	}

	return "http/protobuf"
}

func setupTraces(ctx context.Context, resource *sdkresource.Resource) (shutdown, error) {
	exp, err := exporter("TRACES",
		func() (sdktrace.SpanExporter, error) { return otlptracegrpc.New(ctx) },
		func() (sdktrace.SpanExporter, error) { return otlptracehttp.New(ctx) },
	)

	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func setupMetrics(ctx context.Context, resource *sdkresource.Resource) (shutdown, error) {
	exp, err := exporter("METRICS",
		func() (sdkmetric.Exporter, error) { return otlpmetricgrpc.New(ctx) },
		func() (sdkmetric.Exporter, error) { return otlpmetrichttp.New(ctx) },
	)

	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(resource),
	)

	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// setupLogs routes the default slog logger through the OTLP log exporter.
func setupLogs(ctx context.Context, resource *sdkresource.Resource) (shutdown, error) {
	exp, err := exporter("LOGS",
		func() (sdklog.Exporter, error) { return otlploggrpc.New(ctx) },
		func() (sdklog.Exporter, error) { return otlploghttp.New(ctx) },
	)

	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(resource),
	)

	global.SetLoggerProvider(provider)

	slog.SetDefault(otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)))

	return provider.Shutdown, nil
}
