package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrTwilioConfig is returned when credentials or the sender number are missing.
var ErrTwilioConfig = errors.New("sms: twilio account sid, auth token and from number are required")

// TwilioConfig configures the Twilio sender.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio sends messages through the Twilio Messages API.
type Twilio struct {
	api  messageCreator
	from string
}

// NewTwilio builds a Twilio sender from cfg.
func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrTwilioConfig
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{api: client.Api, from: cfg.From}, nil
}

// Send delivers msg. The Twilio client does not accept a context, so ctx is
// only checked before the call.
func (t *Twilio) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(msg.To)
	params.SetBody(msg.Body)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms: twilio create message: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (*Twilio) Close() error {
	return nil
}
