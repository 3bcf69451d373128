package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Identifier string `validate:"required"`
	Code       string `validate:"required"`
}

type VerifyOTPOutput struct {
	Status string
	Token  string
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// emails are stored lower-cased, phones as submitted
	candidates := lo.Uniq([]string{in.Identifier, strings.ToLower(in.Identifier)})

	record, err := s.store.GetLatestOTP(ctx, candidates, in.Code)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp not found for identifier and code", "identifier", in.Identifier)
		return nil, entity.ErrInvalidCode
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest otp", "identifier", in.Identifier, "error", err)
		return nil, entity.NewStorageError(err)
	}

	if record.Consumed {
		return nil, entity.ErrCodeAlreadyUsed
	}

	now := s.clock.Now().UTC()
	if record.IsExpired(now) {
		if record.ExpiresAt.IsZero() {
			slog.WarnContext(ctx, "otp has unreadable expiry, treated as expired", "otp_id", record.ID)
		}
		return nil, entity.ErrCodeExpired
	}

	consumed, err := s.store.ConsumeOTP(ctx, record.ID, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp", "otp_id", record.ID, "error", err)
		return nil, entity.NewStorageError(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "otp consumed by a concurrent request", "otp_id", record.ID)
		return nil, entity.ErrCodeAlreadyUsed
	}

	return &VerifyOTPOutput{Status: "verified", Token: s.token.Generate()}, nil
}
