// Package observability provides OpenTelemetry setup.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// NewTracerProvider returns a tracer provider exporting spans over OTLP/HTTP to the given URL,
// for example "http://127.0.0.1:4318/v1/traces".
//
// The caller should call Shutdown on the provider to flush spans.
func NewTracerProvider(ctx context.Context, endpointURL, service string) (*sdktrace.TracerProvider, error) {
	if endpointURL == "" {
		return nil, lazyerrors.New("endpoint URL is empty")
	}

	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpointURL))
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	)

	return tp, nil
}
