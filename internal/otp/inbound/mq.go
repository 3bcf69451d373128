package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/goroutine"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/messaging"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.otp.consumer_names")

	consumers := []struct {
		name    string
		topic   string // destination the publisher sends to
		group   string // kafka group, nsq channel, nats queue
		handler messaging.Handler
	}{
		{
			name:    event.OTPIssuedConsumerDelivery,
			topic:   event.OTPIssuedDestination,
			group:   event.OTPIssuedConsumerDelivery,
			handler: mqHandler.OTPIssuedDelivery,
		},
	}

	concurrency := cfg.GetInt("modules.otp.consumer_concurrency")
	if concurrency < 1 {
		concurrency = 10
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
	}
}
