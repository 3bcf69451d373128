package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation that writes messages to the default logger
// instead of sending them.
type Log struct{}

// NewLog returns a logging mailer.
func NewLog() *Log {
	return &Log{}
}

// Send logs the envelope of msg. The body is logged under a masked key.
func (*Log) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail not sent, logging only",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error {
	return nil
}
