package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init configures an OTLP/HTTP trace exporter and registers it as the
// global TracerProvider. Configuration comes from standard OTEL
// environment variables (OTEL_EXPORTER_OTLP_ENDPOINT, etc). The returned
// shutdown function must be called on application exit to flush pending
// spans.
//
// Unlike the conversational framework this scheduler was adapted from, no
// LLM token/cost metrics are wired here: a task flow run has no analogous
// per-call billing unit, so only tracing is carried forward.
func Init(ctx context.Context) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("taskflow")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, err
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
