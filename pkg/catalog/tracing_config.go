package catalog

import (
	"context"

	"go.uber.org/zap"

	internaltracing "github.com/wehubfusion/Daedalus/internal/tracing"
)

// TracingConfig is the public tracing configuration used by catalog clients.
// It mirrors the internal tracing configuration but keeps the implementation
// private.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRatio    float64
}

// DefaultTracingConfig returns a development-friendly tracing configuration.
func DefaultTracingConfig(serviceName string) TracingConfig {
	return fromInternalConfig(internaltracing.DefaultConfig(serviceName))
}

// SetupTracing initializes OpenTelemetry tracing for the process. Catalog
// manifest builds emit spans once a global tracer provider is installed.
// The returned shutdown function should be called on exit.
func SetupTracing(ctx context.Context, config TracingConfig, logger *zap.Logger) (func(context.Context) error, error) {
	return internaltracing.SetupTracing(ctx, config.toInternalConfig(), logger)
}

// ShutdownTracing gracefully shuts down the tracing provider.
func ShutdownTracing(shutdown func(context.Context) error, logger *zap.Logger) error {
	return internaltracing.ShutdownTracing(shutdown, logger)
}

func (c TracingConfig) toInternalConfig() internaltracing.TracingConfig {
	return internaltracing.TracingConfig{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTLPEndpoint,
		SampleRatio:    c.SampleRatio,
	}
}

func fromInternalConfig(cfg internaltracing.TracingConfig) TracingConfig {
	return TracingConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRatio:    cfg.SampleRatio,
	}
}
