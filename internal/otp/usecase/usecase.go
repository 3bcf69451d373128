package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/clock"
	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/goroutine"
	"github.com/shandysiswandi/hirelens/internal/pkg/idempotency"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/otp"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultCodeTTL    = 10 * time.Minute
	defaultMaxRetries = 3

	DeliveryModeNone  = "none"
	DeliveryModeAsync = "async"
	DeliveryModeMQ    = "mq"
)

// OTPIssuedEvent is published after a code is stored when delivery runs through the broker.
type OTPIssuedEvent struct {
	OTPID      int64
	Identifier string
	Channel    entity.Channel
	Code       string
	ExpiresAt  time.Time
}

// Store persists OTP records. Implementations live in outbound/db, cache and docstore.
type Store interface {
	// CreateOTP persists in and returns the id assigned by the store.
	CreateOTP(ctx context.Context, in entity.OTP) (int64, error)
	// GetLatestOTP returns the most recently created record with the exact
	// code for any of identifiers, or goerror.ErrNotFound.
	GetLatestOTP(ctx context.Context, identifiers []string, code string) (*entity.OTP, error)
	// ConsumeOTP flips consumed from false to true in one conditional write.
	// It reports false when the record was already consumed.
	ConsumeOTP(ctx context.Context, id int64, at time.Time) (bool, error)
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

type notifier interface {
	Notify(ctx context.Context, channel entity.Channel, to, body string) error
}

type Usecase struct {
	store         Store
	repoMessaging repoMessaging
	notifier      notifier
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	code          otp.Generator
	token         uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	retryBase     time.Duration
}

type Dependency struct {
	Store         Store
	RepoMessaging repoMessaging
	Notifier      notifier
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Code          otp.Generator
	Token         uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:         dep.Store,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		code:          dep.Code,
		token:         dep.Token,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		retryBase:     200 * time.Millisecond,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) codeTTL() time.Duration {
	if ttl := s.cfg.GetMinute("modules.otp.code_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultCodeTTL
}

func (s *Usecase) maxRetries() uint64 {
	if n := s.cfg.GetInt("modules.otp.delivery.max_retries"); n > 0 {
		return uint64(n)
	}
	return defaultMaxRetries
}
