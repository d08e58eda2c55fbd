// Package tracing provides OpenTelemetry tracing setup utilities for Daedalus
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// TracingConfig holds configuration for tracing setup
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // e.g., "127.0.0.1:4318" (host:port only, path added by exporter)
	SampleRatio    float64
}

// DefaultConfig returns a default tracing configuration
func DefaultConfig(serviceName string) TracingConfig {
	return TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "127.0.0.1:4318",
		SampleRatio:    1.0, // Sample all traces in development
	}
}

// SetupTracing initializes OpenTelemetry tracing with an OTLP HTTP exporter.
// Returns a shutdown function that should be called when the application exits.
func SetupTracing(ctx context.Context, config TracingConfig, logger *zap.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("Setting up tracing",
		zap.String("service_name", config.ServiceName),
		zap.String("otlp_endpoint", config.OTLPEndpoint),
		zap.String("environment", config.Environment))

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Error("Failed to create OTLP exporter", zap.Error(err))
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		logger.Error("Failed to create resource", zap.Error(err))
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(config.SampleRatio)),
	)

	otel.SetTracerProvider(tp)

	// W3C Trace Context propagation
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("Tracing setup completed successfully")

	return tp.Shutdown, nil
}

// ShutdownTracing gracefully shuts down the tracing provider
func ShutdownTracing(shutdown func(context.Context) error, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("Shutting down tracing")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := shutdown(ctx)
	if err != nil {
		logger.Error("Failed to shutdown tracing", zap.Error(err))
		return err
	}
	logger.Info("Tracing shutdown completed successfully")
	return nil
}
