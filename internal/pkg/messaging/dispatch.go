package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/hirelens/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// once guards a message against being acked or nacked twice.
type once struct {
	responded atomic.Bool
}

// claim reports whether the caller is the first to respond.
func (o *once) claim() bool {
	return !o.responded.Swap(true)
}

func (o *once) done() bool {
	return o.responded.Load()
}

type respondable interface {
	Message
	done() bool
}

// dispatch runs handler with panic recovery and applies auto-ack.
func dispatch(ctx context.Context, kind string, msg respondable, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, msg)
	})

	if !autoAck || msg.done() {
		return herr
	}
	if herr == nil {
		return msg.Ack(ctx)
	}
	if err := msg.Nack(ctx); err != nil {
		slog.WarnContext(ctx, "messaging: nack failed", "kind", kind, "topic", msg.Topic(), "error", err)
	}
	return herr
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler",
				"kind", kind,
				"panic", rvr,
				"stack", stacktrace.InternalPaths(debug.Stack()),
			)
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
