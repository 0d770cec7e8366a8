// Package ctxlog carries a go-kit logger through a context, so that
// the build and package stages can log without threading a logger
// parameter through every helper.
package ctxlog

import (
	"context"

	"github.com/go-kit/kit/log"
	"go.opencensus.io/trace"
)

type key int

const loggerKey key = 0

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a copy of ctx whose logger has keyvals appended. If ctx
// has no logger, the returned context still has none.
func With(ctx context.Context, keyvals ...interface{}) context.Context {
	v, ok := ctx.Value(loggerKey).(log.Logger)
	if !ok {
		return ctx
	}
	return NewContext(ctx, log.With(v, keyvals...))
}

// FromContext returns the logger stored in ctx, or a nop logger. When a
// span is active, its ids are attached to every line.
func FromContext(ctx context.Context) log.Logger {
	v, ok := ctx.Value(loggerKey).(log.Logger)
	if !ok {
		return log.NewNopLogger()
	}
	span := trace.FromContext(ctx).SpanContext()

	// Unset spans only add zero ids to the output.
	if isTraceUninitialized(span) {
		return v
	}

	return log.With(
		v,
		"trace_id", span.TraceID.String(),
		"span_id", span.SpanID.String(),
	)
}

func isTraceUninitialized(span trace.SpanContext) bool {
	for _, b := range span.TraceID {
		if b != 0 {
			return false
		}
	}
	return true
}
