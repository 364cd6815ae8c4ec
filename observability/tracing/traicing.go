/*
Tracing wrapping
*/
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/shortlink-org/go-sdk/remoting/config"
	"github.com/shortlink-org/go-sdk/remoting/logger"
)

// New returns the TracerProvider used by the remoting client.
// With TRACER_ENABLED=false a no-op provider is returned.
//
//nolint:ireturn // callers only need the interface
func New(ctx context.Context, log logger.Logger, cfg *config.Config) (trace.TracerProvider, func(), error) {
	cfg.SetDefault("TRACER_ENABLED", false)
	cfg.SetDefault("TRACER_URI", "localhost:4317")
	cfg.SetDefault("SERVICE_NAME", "rocketmq-remoting")
	cfg.SetDefault("TRACER_SHUTDOWN_TIMEOUT", "5s")

	if !cfg.GetBool("TRACER_ENABLED") {
		return noop.NewTracerProvider(), func() {}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.GetString("TRACER_URI")),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.GetString("SERVICE_NAME")),
		attribute.String("service.version", cfg.GetString("SERVICE_VERSION")),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info("Run tracing", slog.String("uri", cfg.GetString("TRACER_URI")))

	timeout := cfg.GetDuration("TRACER_SHUTDOWN_TIMEOUT")
	if timeout <= 0 {
		timeout = 5 * time.Second //nolint:mnd // fallback
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if errShutdown := tp.Shutdown(shutdownCtx); errShutdown != nil {
			log.Error(errShutdown.Error())
		}
	}

	return tp, cleanup, nil
}
