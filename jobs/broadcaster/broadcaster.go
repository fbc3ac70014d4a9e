// Package broadcaster drains the trade outbox into Kafka. Delivery is
// at-least-once: entries are marked SENT before the publish attempt and
// ACKED after the broker confirms, so a crash in between causes a
// resend, never a loss.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"matchbook/infra/outbox"
)

type Broadcaster struct {
	log      *zap.Logger
	outbox   *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

func New(
	log *zap.Logger,
	box *outbox.Outbox,
	brokers []string,
	topic string,
	interval time.Duration,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		log:      log.Named("broadcaster"),
		outbox:   box,
		producer: producer,
		topic:    topic,
		interval: interval,
	}, nil
}

// Run drains pending outbox entries on a ticker until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopping")
			return
		case <-ticker.C:
			b.drainOnce()
			if err := b.outbox.Compact(); err != nil {
				b.log.Warn("compact failed", zap.Error(err))
			}
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.outbox.ScanPending(func(e outbox.Entry) error {
		if err := b.outbox.MarkSent(e.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("publish failed, will retry",
				zap.Uint64("seq", e.Seq), zap.Error(err))
			return nil // leave SENT, retried next tick
		}

		return b.outbox.MarkAcked(e.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
