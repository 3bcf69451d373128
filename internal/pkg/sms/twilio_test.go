package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &twilioApi.ApiV2010Message{}, nil
}

func TestNewTwilio(t *testing.T) {
	_, err := NewTwilio(TwilioConfig{AccountSID: "AC123"})
	assert.ErrorIs(t, err, ErrTwilioConfig)

	tw, err := NewTwilio(TwilioConfig{AccountSID: "AC123", AuthToken: "secret", From: "+15550000000"})
	require.NoError(t, err)
	assert.NotNil(t, tw.api)
}

func TestTwilio_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fake := &fakeCreator{}
		tw := &Twilio{api: fake, from: "+15550000000"}

		err := tw.Send(context.Background(), Message{To: "+15551234567", Body: "hello"})

		require.NoError(t, err)
		require.NotNil(t, fake.params)
		assert.Equal(t, "+15550000000", *fake.params.From)
		assert.Equal(t, "+15551234567", *fake.params.To)
		assert.Equal(t, "hello", *fake.params.Body)
	})

	t.Run("NoRecipient", func(t *testing.T) {
		tw := &Twilio{api: &fakeCreator{}, from: "+15550000000"}
		assert.ErrorIs(t, tw.Send(context.Background(), Message{Body: "x"}), ErrNoRecipient)
	})

	t.Run("ProviderError", func(t *testing.T) {
		boom := errors.New("boom")
		tw := &Twilio{api: &fakeCreator{err: boom}, from: "+15550000000"}

		err := tw.Send(context.Background(), Message{To: "+15551234567", Body: "x"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fake := &fakeCreator{}
		tw := &Twilio{api: fake, from: "+15550000000"}

		assert.ErrorIs(t, tw.Send(ctx, Message{To: "+15551234567"}), context.Canceled)
		assert.Nil(t, fake.params)
	})
}
