// Package subscriber consumes stock changed events from NATS JetStream.
package subscriber

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// maxDeliver bounds redelivery of NAKed messages so a malformed payload cannot block a worker forever.
const maxDeliver = 5

// Start creates the durable consumer, calls ready once it exists and runs the configured number of workers
// until ctx is cancelled.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, handler *Handler,
	ready func() error, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxDeliver,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	if ready != nil {
		if err := ready(); err != nil {
			return err
		}
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range subscriberCfg.Workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, handler, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and hands every message to the handler.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, handler *Handler, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
				sleep(ctx, cfg.Interval)
				continue
			}
			for msg := range batch.Messages() {
				handler.Handle(ctx, msg)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) && ctx.Err() == nil {
				logger.WarnContext(ctx, "batch ended with error", "error", err)
				sleep(ctx, cfg.Interval)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
