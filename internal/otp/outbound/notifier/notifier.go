package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/mail"
	"github.com/shandysiswandi/hirelens/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrUnsupportedChannel is returned for channels with no configured sender.
var ErrUnsupportedChannel = errors.New("notifier: unsupported channel")

const emailSubject = "Your verification code"

// Notifier routes a code to the email or SMS provider based on its channel.
type Notifier struct {
	mail mail.Mail
	sms  sms.SMS
	ins  instrument.Instrumentation
}

func New(mail mail.Mail, sms sms.SMS, ins instrument.Instrumentation) *Notifier {
	return &Notifier{mail: mail, sms: sms, ins: ins}
}

func (n *Notifier) Notify(ctx context.Context, channel entity.Channel, to, body string) (err error) {
	ctx, span := n.ins.Tracer("otp.outbound.notifier").Start(ctx, "Notify")
	span.SetAttributes(attribute.String("otp.channel", channel.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch channel {
	case entity.ChannelEmail:
		if n.mail == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
		}
		return n.mail.Send(ctx, mail.Message{
			To:       []string{to},
			Subject:  emailSubject,
			TextBody: body,
		})

	case entity.ChannelPhone:
		if n.sms == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
		}
		return n.sms.Send(ctx, sms.Message{To: to, Body: body})

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
	}
}
