// Package idempotency makes side effects such as sending a message run at most
// once per key, even when the triggering event is delivered more than once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned while another worker holds the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	// ErrAlreadyCompleted is returned when the key finished successfully before.
	ErrAlreadyCompleted = errors.New("idempotency: operation already completed")
	// ErrInvalidState is returned when the stored value is not a known state.
	ErrInvalidState = errors.New("idempotency: invalid state")
)

// State is the stored progress of a keyed operation.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

// Idempotency runs fn once per key.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Hour
)

// Option tunes a single Exec call.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress claim blocks other workers.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func newExecOptions(opts []Option) execOptions {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}
	return o
}

// Redis tracks state in Redis so every replica shares it.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Redis-backed tracker.
func New(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "idempotency:"}
}

// Acquire claims key. StateNone means the caller now owns it.
func (r *Redis) Acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	fk := r.prefix + key

	ok, err := r.client.SetNX(ctx, fk, StateInProgress.String(), lock).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return StateNone, nil
	}

	current, err := r.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return r.Acquire(ctx, key, lock)
	}
	if err != nil {
		return "", err
	}

	switch State(current) {
	case StateInProgress, StateCompleted:
		return State(current), nil
	default:
		return "", ErrInvalidState
	}
}

// Exec runs fn unless key is in progress or completed. A failed fn releases
// the key so that a redelivery can try again.
func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := newExecOptions(opts)

	state, err := r.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	if err := stateError(state); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if delErr := r.client.Del(context.WithoutCancel(ctx), r.prefix+key).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return r.client.Set(context.WithoutCancel(ctx), r.prefix+key, StateCompleted.String(), o.stateTTL).Err()
}

func stateError(s State) error {
	switch s {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	default:
		return nil
	}
}
