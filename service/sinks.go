package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"matchbook/infra/kafka"
)

// DepthPublisher forwards depth snapshots to the market-data topic.
// Events are handed off through a buffered channel so the gateway's
// writer goroutine never blocks on the broker; when the buffer is full
// the event is dropped — depth snapshots are full-state, so the next
// one supersedes anything lost.
type DepthPublisher struct {
	log      *zap.Logger
	producer *kafka.Producer
	events   chan DepthEvent
}

func NewDepthPublisher(log *zap.Logger, producer *kafka.Producer) *DepthPublisher {
	return &DepthPublisher{
		log:      log.Named("depth-publisher"),
		producer: producer,
		events:   make(chan DepthEvent, 256),
	}
}

func (p *DepthPublisher) PublishTrade(TradeEvent) {}

func (p *DepthPublisher) PublishDepth(ev DepthEvent) {
	select {
	case p.events <- ev:
	default:
	}
}

// Run forwards queued events until ctx is done.
func (p *DepthPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			payload, err := json.Marshal(ev)
			if err != nil {
				p.log.Error("marshal depth event", zap.Error(err))
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			key := []byte(ev.Symbol + "/" + strconv.FormatUint(ev.Seq, 10))
			if err := p.producer.Send(sendCtx, key, payload); err != nil {
				p.log.Warn("depth publish failed", zap.Error(err))
			}
			cancel()
		}
	}
}
