package messaging

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory is an in-process broker. Each group receives every message published
// to a topic once; consumers in the same group compete for it. Messages
// published before any consumer subscribes are dropped.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan *memoryMessage
	closed bool
	seq    atomic.Uint64
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{groups: make(map[string]map[string]chan *memoryMessage)}
}

// Close stops accepting messages.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans msg out to every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	for _, ch := range m.groups[topic] {
		mm := &memoryMessage{
			id:        strconv.FormatUint(m.seq.Inc(), 10),
			topic:     topic,
			body:      append([]byte(nil), msg.Body...),
			key:       msg.Key,
			headers:   maps.Clone(msg.Headers),
			timestamp: time.Now(),
		}
		select {
		case ch <- mm:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Consume delivers messages for topic to handler until ctx is done.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	ch, err := m.subscribe(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-ch:
					//nolint:errcheck // memory delivery has no redelivery to report to
					dispatch(ctx, DriverMemory, mm, handler, co.autoAck)
				}
			}
		})
	}

	wg.Wait()
	return ctx.Err()
}

// Subscribers returns the number of groups subscribed to topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups[topic])
}

func (m *Memory) subscribe(topic, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if m.groups[topic] == nil {
		m.groups[topic] = make(map[string]chan *memoryMessage)
	}
	ch, ok := m.groups[topic][group]
	if !ok {
		ch = make(chan *memoryMessage, 64)
		m.groups[topic][group] = ch
	}
	return ch, nil
}

type memoryMessage struct {
	once
	id        string
	topic     string
	body      []byte
	key       []byte
	headers   map[string]string
	timestamp time.Time
}

func (m *memoryMessage) Body() []byte             { return m.body }
func (m *memoryMessage) Key() []byte              { return m.key }
func (m *memoryMessage) Header(key string) string { return m.headers[key] }
func (m *memoryMessage) ID() string               { return m.id }
func (m *memoryMessage) Topic() string            { return m.topic }
func (m *memoryMessage) Timestamp() time.Time     { return m.timestamp }

func (m *memoryMessage) Ack(context.Context) error {
	m.claim()
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	m.claim()
	return nil
}
