package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey Context 中追踪号的键
const TraceIDKey = "trace_id"

// ContextHandler 从 ctx 提取 trace_id 并附加到记录上
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String("trace_id", traceID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
