package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/idempotency"
)

type DeliverOTPInput struct {
	OTPID      int64     `validate:"required"`
	Identifier string    `validate:"required"`
	Channel    string    `validate:"required,oneof=email phone"`
	Code       string    `validate:"required,numeric"`
	ExpiresAt  time.Time `validate:"required"`
}

// DeliverOTP sends an issued code to its owner. It runs at most once per
// record and skips codes that expired while the event was queued.
func (s *Usecase) DeliverOTP(ctx context.Context, in DeliverOTPInput) error {
	ctx, span := s.startSpan(ctx, "DeliverOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if !s.clock.Now().Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery, skipped", "otp_id", in.OTPID)
		return nil
	}

	record := entity.OTP{
		ID:         in.OTPID,
		Identifier: in.Identifier,
		Channel:    entity.Channel(in.Channel),
		Code:       in.Code,
		ExpiresAt:  in.ExpiresAt,
	}

	key := "otp_delivery:" + strconv.FormatInt(in.OTPID, 10)
	err := s.idemp.Exec(ctx, key, func(ctx context.Context) error {
		return s.deliver(ctx, record)
	}, idempotency.WithStateTTL(s.codeTTL()))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "otp delivery already handled", "otp_id", in.OTPID, "state", err.Error())
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to deliver otp", "otp_id", in.OTPID, "error", err)
		return goerror.NewServer(err)
	default:
		return nil
	}
}

// deliver calls the notifier with exponential backoff.
func (s *Usecase) deliver(ctx context.Context, record entity.OTP) error {
	body := DeliveryBody(record.Code, s.codeTTL())

	b := retry.NewExponential(s.retryBase)
	b = retry.WithMaxRetries(s.maxRetries(), b)
	b = retry.WithCappedDuration(5*time.Second, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.notifier.Notify(ctx, record.Channel, record.Identifier, body); err != nil {
			slog.WarnContext(ctx, "otp notify attempt failed", "otp_id", record.ID, "channel", record.Channel.String(), "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// DeliveryBody is the text sent to the user.
func DeliveryBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}
