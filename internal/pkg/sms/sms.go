// Package sms sends text messages to phone numbers.
package sms

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ErrNoRecipient is returned when a message has no destination number.
var ErrNoRecipient = errors.New("sms: recipient is required")

// Message is a single text message.
type Message struct {
	To   string
	Body string
}

// SMS abstracts a text message provider.
type SMS interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Log is an SMS implementation that only writes to the default logger.
type Log struct{}

// NewLog returns a logging sender.
func NewLog() *Log {
	return &Log{}
}

// Send logs msg without delivering it.
func (*Log) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	slog.InfoContext(ctx, "sms not sent, logging only", "to", msg.To, "body", msg.Body)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error {
	return nil
}
