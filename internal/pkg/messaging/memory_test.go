package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewMemory()
	received := make(chan Message, 1)

	var wg sync.WaitGroup
	wg.Go(func() {
		err := broker.Consume(ctx, "otp_issued", func(_ context.Context, msg Message) error {
			received <- msg
			return nil
		}, WithGroup("delivery"), WithAutoAck(true))
		assert.ErrorIs(t, err, context.Canceled)
	})

	require.Eventually(t, func() bool {
		broker.mu.RLock()
		defer broker.mu.RUnlock()
		return len(broker.groups["otp_issued"]) == 1
	}, time.Second, 5*time.Millisecond)

	err := broker.Publish(ctx, "otp_issued", OutgoingMessage{
		Body:    []byte(`{"otp_id":1}`),
		Headers: map[string]string{"cID": "abc"},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.JSONEq(t, `{"otp_id":1}`, string(msg.Body()))
		assert.Equal(t, "abc", msg.Header("cID"))
		assert.Equal(t, "otp_issued", msg.Topic())
		assert.NotEmpty(t, msg.ID())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	wg.Wait()
}

func TestMemory_Validation(t *testing.T) {
	ctx := context.Background()
	broker := NewMemory()

	assert.ErrorIs(t, broker.Publish(ctx, "", OutgoingMessage{}), ErrTopicRequired)
	assert.ErrorIs(t, broker.Consume(ctx, "t", nil), ErrHandlerRequired)

	require.NoError(t, broker.Close())
	assert.ErrorIs(t, broker.Publish(ctx, "t", OutgoingMessage{}), ErrClosed)
}

func TestDispatch_RecoversPanicAndNacks(t *testing.T) {
	msg := &memoryMessage{topic: "t"}

	err := dispatch(context.Background(), DriverMemory, msg, func(context.Context, Message) error {
		panic("boom")
	}, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, msg.done())
}

func TestDispatch_HandlerAlreadyResponded(t *testing.T) {
	msg := &memoryMessage{topic: "t"}
	want := errors.New("handled")

	err := dispatch(context.Background(), DriverMemory, msg, func(ctx context.Context, m Message) error {
		require.NoError(t, m.Ack(ctx))
		return want
	}, true)

	assert.ErrorIs(t, err, want)
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver(" Memory ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	m, err = NewFromDriver("", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver("rabbit", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
}

func TestNSQEnvelope(t *testing.T) {
	body, err := encodeNSQ(OutgoingMessage{Body: []byte(`{"a":1}`), Headers: map[string]string{"cID": "x"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"headers":{"cID":"x"},"body":{"a":1}}`, string(body))

	raw, err := encodeNSQ(OutgoingMessage{Body: []byte("plain")})
	require.NoError(t, err)
	assert.Equal(t, "plain", string(raw))
}
