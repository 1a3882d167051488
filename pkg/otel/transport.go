package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewTransport traces outgoing requests when telemetry is enabled.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	if !EnableTelemetry {
		return base
	}

	return otelhttp.NewTransport(base)
}

// NewHandler traces incoming requests when telemetry is enabled.
func NewHandler(h http.Handler, operation string) http.Handler {
	if !EnableTelemetry {
		return h
	}

	return otelhttp.NewHandler(h, operation)
}
