package mail

import (
	"context"
	"io"
)

// Message is a single email. Verification codes go out as TextBody; HTMLBody
// is sent as an alternative part when both are set.
type Message struct {
	// From overrides the configured default sender.
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail sends email through a provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
