// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"

	"github.com/ava-labs/avalanchego/trace"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
)

var _ trace.Tracer = (*noOpTracer)(nil)

// Noop records nothing. It is used when tracing is disabled and in tests.
var Noop trace.Tracer = &noOpTracer{
	t: oteltrace.NewNoopTracerProvider().Tracer(DefaultAppName),
}

type noOpTracer struct {
	embedded.Tracer

	t oteltrace.Tracer
}

func (n noOpTracer) Start(
	ctx context.Context,
	spanName string,
	opts ...oteltrace.SpanStartOption,
) (context.Context, oteltrace.Span) {
	return n.t.Start(ctx, spanName, opts...)
}

func (noOpTracer) Close() error {
	return nil
}
