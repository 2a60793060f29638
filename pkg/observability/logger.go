package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrCommand = "command"
)

// Metadata identifies the process in every log record. Empty Env and Command are omitted.
type Metadata struct {
	Service string
	Env     string
	Command string
}

func (md Metadata) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String(attrService, md.Service)}

	for _, optional := range []slog.Attr{slog.String(attrEnv, md.Env), slog.String(attrCommand, md.Command)} {
		if optional.Value.String() != "" {
			attrs = append(attrs, optional)
		}
	}

	return attrs
}

// TracingHandler is an [slog.Handler] that adds the trace_id and span_id of the
// record's context. Metadata is attached once, before any group, so it stays at
// the top level of grouped records.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with trace context and process metadata.
func NewTracingHandler(inner slog.Handler, md Metadata) *TracingHandler {
	return &TracingHandler{inner: inner.WithAttrs(md.attrs())}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
