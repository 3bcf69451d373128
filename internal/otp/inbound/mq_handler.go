package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/hirelens/internal/otp/usecase"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/messaging"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OTPIssuedDelivery sends an issued code to its owner. Malformed payloads are
// dropped since redelivery cannot fix them.
func (h *MQHandler) OTPIssuedDelivery(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("otp.inbound.mq").Start(ctx, "OTPIssuedDelivery")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: otp issued delivery", "msg_id", msg.ID(), "msg_size", len(body))

	// body holds the plaintext code and must not be logged
	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued", "msg_id", msg.ID(), "msg_size", len(body), "error", err)
		return nil
	}

	slog.DebugContext(ctx, "otp issued payload decoded", "otp_id", payload.OTPID, "channel", payload.Channel)

	if err := h.uc.DeliverOTP(ctx, usecase.DeliverOTPInput{
		OTPID:      payload.OTPID,
		Identifier: payload.Identifier,
		Channel:    payload.Channel,
		Code:       payload.Code,
		ExpiresAt:  payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp", "otp_id", payload.OTPID, "error", err)
		return err
	}

	return nil
}
