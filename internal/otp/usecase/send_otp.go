package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
)

type SendOTPInput struct {
	Identifier string
	Via        string `validate:"required,oneof=email phone"`
}

type SendOTPOutput struct {
	Status string
	// DebugCode is only set when modules.otp.debug_code_enabled is on.
	DebugCode string
}

type emailIdentifier struct {
	Identifier string `json:"identifier" validate:"required,email_address"`
}

type phoneIdentifier struct {
	Identifier string `json:"identifier" validate:"required,phone"`
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	channel := entity.Channel(in.Via)
	identifier, err := s.normalizeIdentifier(channel, in.Identifier)
	if err != nil {
		return nil, err
	}

	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now().UTC()
	record := entity.OTP{
		Identifier: identifier,
		Channel:    channel,
		Code:       code,
		Consumed:   false,
		ExpiresAt:  now.Add(s.codeTTL()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	record.ID, err = s.store.CreateOTP(ctx, record)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp", "identifier", identifier, "channel", channel.String(), "error", err)
		return nil, entity.NewStorageError(err)
	}

	s.dispatchDelivery(ctx, record)

	out := &SendOTPOutput{Status: "sent"}
	if s.cfg.GetBool("modules.otp.debug_code_enabled") {
		out.DebugCode = code
	}

	return out, nil
}

// normalizeIdentifier trims the identifier, validates it for the channel and
// lower-cases emails. Phones are kept as submitted.
func (s *Usecase) normalizeIdentifier(channel entity.Channel, raw string) (string, error) {
	identifier := strings.TrimSpace(raw)

	switch channel {
	case entity.ChannelEmail:
		if err := s.validator.Validate(emailIdentifier{Identifier: identifier}); err != nil {
			return "", goerror.NewValidation(err, "Invalid email address", goerror.CodeInvalidFormat, entity.ReasonInvalidIdentifier)
		}
		return strings.ToLower(identifier), nil

	case entity.ChannelPhone:
		if err := s.validator.Validate(phoneIdentifier{Identifier: identifier}); err != nil {
			return "", goerror.NewValidation(err, "Invalid phone number", goerror.CodeInvalidFormat, entity.ReasonInvalidIdentifier)
		}
		return identifier, nil

	default:
		return "", goerror.NewInvalidInput(nil, "via", "via must be one of [email phone]")
	}
}

// dispatchDelivery hands the code to the configured delivery path. Failures
// are logged and never fail the send call.
func (s *Usecase) dispatchDelivery(ctx context.Context, record entity.OTP) {
	mode := strings.ToLower(strings.TrimSpace(s.cfg.GetString("modules.otp.delivery.mode")))

	switch mode {
	case "", DeliveryModeNone:
		return

	case DeliveryModeMQ:
		if err := s.repoMessaging.PublishOTPIssued(ctx, OTPIssuedEvent{
			OTPID:      record.ID,
			Identifier: record.Identifier,
			Channel:    record.Channel,
			Code:       record.Code,
			ExpiresAt:  record.ExpiresAt,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued", "otp_id", record.ID, "error", err)
		}

	case DeliveryModeAsync:
		s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
			if err := s.deliver(ctx, record); err != nil {
				slog.ErrorContext(ctx, "failed to deliver otp", "otp_id", record.ID, "error", err)
				return err
			}
			return nil
		})

	default:
		slog.WarnContext(ctx, "unknown otp delivery mode, code not delivered", "mode", mode, "otp_id", record.ID)
	}
}
