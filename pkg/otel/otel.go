package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

type shutdown func(context.Context) error

// Setup installs the default logger and, when telemetry is enabled, the OTLP
// logger, tracer and meter providers. The returned function flushes them.
func Setup(ctx context.Context, name, version string) (func(context.Context) error, error) {
	level := slog.LevelInfo

	if EnableDebug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	noop := func(context.Context) error { return nil }

	if !EnableTelemetry {
		return noop, nil
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)

	if err != nil {
		return noop, err
	}

	var shutdowns []shutdown

	for _, sig := range signals {
		fn, err := sig.setup(ctx, resource)

		if err != nil {
			for _, fn := range shutdowns {
				fn(ctx)
			}

			return noop, fmt.Errorf("otel %s: %w", strings.ToLower(sig.name), err)
		}

		shutdowns = append(shutdowns, fn)
	}

	return func(ctx context.Context) error {
		var errs []error

		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}

		return errors.Join(errs...)
	}, nil
}
