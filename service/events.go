package service

import "matchbook/domain/book"

// TradeEvent is the published form of an execution. Seq is a dedicated
// trade sequence, independent of order arrival sequence, so downstream
// consumers can detect gaps in the trade stream alone.
type TradeEvent struct {
	Symbol  string `json:"symbol"`
	Seq     uint64 `json:"seq"`
	TakerID uint64 `json:"taker_id"`
	MakerID uint64 `json:"maker_id"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
	At      int64  `json:"at"`
}

// DepthEvent is a full aggregated book snapshot, published after every
// state-changing command.
type DepthEvent struct {
	Symbol string     `json:"symbol"`
	Seq    uint64     `json:"seq"`
	At     int64      `json:"at"`
	Depth  book.Depth `json:"depth"`
}

// EventSink receives market-data events from the gateway. Publishing
// happens on the gateway's writer goroutine, so implementations must
// not block: hand off to a channel or drop.
type EventSink interface {
	PublishTrade(TradeEvent)
	PublishDepth(DepthEvent)
}
