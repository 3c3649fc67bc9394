// Package tracing настраивает OpenTelemetry: провайдер спанов, экспортёр и propagator.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"taskManager/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Settings struct {
	ServiceName string
	Exporter    string  // "stdout" или "otlp"
	Endpoint    string  // host:port коллектора для otlp
	Insecure    bool    // otlp без TLS
	SampleRatio float64 // доля трассируемых запросов, 0 - по умолчанию 1
	Output      io.Writer
}

// Setup регистрирует глобальный TracerProvider. Возвращённую функцию нужно
// вызвать при остановке, она дописывает оставшиеся спаны.
func Setup(ctx context.Context, settings Settings) (func(context.Context) error, error) {
	exporter, err := newExporter(ctx, settings)
	if err != nil {
		return nil, err
	}

	name := settings.ServiceName
	if name == "" {
		name = "taskManager"
	}
	ratio := settings.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Трассировка включена",
		zap.String("exporter", settings.Exporter),
		zap.String("service", name),
		zap.Float64("sample_ratio", ratio))

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, settings Settings) (sdktrace.SpanExporter, error) {
	switch settings.Exporter {
	case ExporterStdout, "":
		out := settings.Output
		if out == nil {
			out = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("stdout экспортёр: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(settings.Endpoint)}
		if settings.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp экспортёр: %w", err)
		}
		return exporter, nil

	default:
		return nil, fmt.Errorf("неизвестный экспортёр трассировки %q", settings.Exporter)
	}
}
