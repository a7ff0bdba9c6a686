// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"errors"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	DefaultAppName = "counterchain"

	tracerExportTimeout = 10 * time.Second
	// Longer than [tracerExportTimeout] so in-flight exports can finish.
	tracerProviderShutdownTimeout = 15 * time.Second
)

var ErrMissingEndpoint = errors.New("missing trace endpoint")

type Config struct {
	Enabled bool `yaml:"enabled"`

	// The fraction of traces to sample.
	// If >= 1 always samples.
	// If <= 0 never samples.
	SampleRate float64 `yaml:"sampleRate"`

	AppName string `yaml:"appName"`
	Agent   string `yaml:"agent"`
	Version string `yaml:"version"`

	// Zipkin collector URL.
	Endpoint string `yaml:"endpoint"`
}

func NewDefaultConfig() Config {
	return Config{
		SampleRate: 0.1,
		AppName:    DefaultAppName,
		Agent:      "counter-node",
		Endpoint:   "http://localhost:9411/api/v2/spans",
	}
}

type tracer struct {
	oteltrace.Tracer

	tp *sdktrace.TracerProvider
}

func (t *tracer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tracerProviderShutdownTimeout)
	defer cancel()

	return t.tp.Shutdown(ctx)
}

// New returns a zipkin-backed tracer, or Noop when tracing is disabled.
func New(config Config) (trace.Tracer, error) {
	if !config.Enabled {
		return Noop, nil
	}
	if len(config.Endpoint) == 0 {
		return nil, ErrMissingEndpoint
	}

	exporter, err := zipkin.New(config.Endpoint)
	if err != nil {
		return nil, err
	}

	tracerProviderOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(tracerExportTimeout)),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("version", config.Version),
				semconv.ServiceNameKey.String(config.Agent),
			),
		),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.SampleRate)),
	}

	tracerProvider := sdktrace.NewTracerProvider(tracerProviderOpts...)
	return &tracer{
		Tracer: tracerProvider.Tracer(config.AppName),
		tp:     tracerProvider,
	}, nil
}
