// Package service hosts the gateway in front of the matching engine.
//
// OrderService is the only write entry point into the system. Every
// submission and cancellation — from any number of producers — is
// funnelled through one inbox channel and applied by a single writer
// goroutine, which assigns the arrival sequence at ingress. Price-time
// priority is only meaningful relative to one global arrival order, so
// this funnel is what makes the engine's guarantees hold under
// concurrent callers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"matchbook/domain/book"
	"matchbook/infra/outbox"
	"matchbook/infra/sequence"
	"matchbook/infra/wal"
)

var ErrStopped = errors.New("service: gateway stopped")

// SubmitRequest is an incoming limit order. OrderID zero means the
// gateway assigns one.
type SubmitRequest struct {
	OrderID uint64
	Side    book.Side
	Price   int64
	Qty     int64
}

// SubmitResult reports what a submission did.
type SubmitResult struct {
	OrderID uint64
	Seq     uint64
	Trades  []book.Trade
	Resting bool
}

// Options carries the optional collaborators. WAL and Outbox may be nil
// (tests run without durability); Sinks may be empty.
type Options struct {
	Symbol       string
	DepthLimit   int
	RecentTrades int
	WAL          *wal.WAL
	Outbox       *outbox.Outbox
	Sinks        []EventSink
}

type reqKind uint8

const (
	reqSubmit reqKind = iota
	reqCancel
	reqDepth
	reqTrades
)

type submitOutcome struct {
	res SubmitResult
	err error
}

type request struct {
	kind reqKind

	submit     SubmitRequest
	cancelID   uint64
	depthLimit int
	lastN      int

	submitCh chan submitOutcome
	cancelCh chan bool
	depthCh  chan book.Depth
	tradesCh chan []TradeEvent
}

// OrderService owns the book and serializes all access to it.
type OrderService struct {
	log  *zap.Logger
	book *book.Book
	opts Options

	seqGen   *sequence.Sequencer // arrival sequence
	idGen    *sequence.Sequencer // gateway-assigned order ids
	tradeSeq *sequence.Sequencer // trade stream sequence

	inbox  chan request
	recent *tradeRing
	done   chan struct{}
}

func NewOrderService(
	log *zap.Logger,
	bk *book.Book,
	seqGen, idGen, tradeSeq *sequence.Sequencer,
	opts Options,
) *OrderService {
	if opts.RecentTrades <= 0 {
		opts.RecentTrades = 1024
	}
	return &OrderService{
		log:      log.Named("gateway"),
		book:     bk,
		opts:     opts,
		seqGen:   seqGen,
		idGen:    idGen,
		tradeSeq: tradeSeq,
		inbox:    make(chan request, 1024),
		recent:   newTradeRing(opts.RecentTrades),
		done:     make(chan struct{}),
	}
}

// Run drains the inbox until ctx is done. It must be the only goroutine
// that touches the book.
func (s *OrderService) Run(ctx context.Context) {
	s.log.Info("gateway started", zap.String("symbol", s.opts.Symbol))
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("gateway stopping")
			return
		case req := <-s.inbox:
			s.dispatch(req)
		}
	}
}

func (s *OrderService) dispatch(req request) {
	switch req.kind {
	case reqSubmit:
		res, err := s.applySubmit(req.submit)
		req.submitCh <- submitOutcome{res: res, err: err}
	case reqCancel:
		req.cancelCh <- s.applyCancel(req.cancelID)
	case reqDepth:
		req.depthCh <- s.book.Depth(req.depthLimit)
	case reqTrades:
		req.tradesCh <- s.recent.last(req.lastN)
	}
}

// ---- public API (safe for concurrent callers) ----

// Submit funnels an order through the gateway and waits for the result.
func (s *OrderService) Submit(ctx context.Context, sub SubmitRequest) (SubmitResult, error) {
	req := request{kind: reqSubmit, submit: sub, submitCh: make(chan submitOutcome, 1)}
	if err := s.send(ctx, req); err != nil {
		return SubmitResult{}, err
	}
	select {
	case out := <-req.submitCh:
		return out.res, out.err
	case <-s.done:
		return SubmitResult{}, ErrStopped
	}
}

// Cancel removes a resting order; false means the id was unknown or
// already terminal.
func (s *OrderService) Cancel(ctx context.Context, orderID uint64) (bool, error) {
	req := request{kind: reqCancel, cancelID: orderID, cancelCh: make(chan bool, 1)}
	if err := s.send(ctx, req); err != nil {
		return false, err
	}
	select {
	case ok := <-req.cancelCh:
		return ok, nil
	case <-s.done:
		return false, ErrStopped
	}
}

// Depth returns an aggregated book snapshot, limit levels per side.
func (s *OrderService) Depth(ctx context.Context, limit int) (book.Depth, error) {
	req := request{kind: reqDepth, depthLimit: limit, depthCh: make(chan book.Depth, 1)}
	if err := s.send(ctx, req); err != nil {
		return book.Depth{}, err
	}
	select {
	case d := <-req.depthCh:
		return d, nil
	case <-s.done:
		return book.Depth{}, ErrStopped
	}
}

// RecentTrades returns up to n most recent trades, newest first.
func (s *OrderService) RecentTrades(ctx context.Context, n int) ([]TradeEvent, error) {
	req := request{kind: reqTrades, lastN: n, tradesCh: make(chan []TradeEvent, 1)}
	if err := s.send(ctx, req); err != nil {
		return nil, err
	}
	select {
	case evs := <-req.tradesCh:
		return evs, nil
	case <-s.done:
		return nil, ErrStopped
	}
}

func (s *OrderService) send(ctx context.Context, req request) error {
	select {
	case s.inbox <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// ---- writer-goroutine internals ----

func (s *OrderService) applySubmit(sub SubmitRequest) (SubmitResult, error) {
	id := sub.OrderID
	if id == 0 {
		id = s.idGen.Next()
	}
	seq := s.seqGen.Next()
	now := time.Now().UnixNano()

	// Journal the command before touching the book; replaying the same
	// commands reproduces the same state.
	if s.opts.WAL != nil {
		rec := &wal.Record{
			Type:    wal.RecordSubmit,
			Seq:     seq,
			At:      now,
			OrderID: id,
			Side:    uint8(sub.Side),
			Price:   sub.Price,
			Qty:     sub.Qty,
		}
		if err := s.opts.WAL.Append(rec); err != nil {
			s.log.Error("wal append failed", zap.Error(err))
			return SubmitResult{}, err
		}
	}

	trades, err := s.book.Submit(book.Order{
		ID:    id,
		Side:  sub.Side,
		Price: sub.Price,
		Qty:   sub.Qty,
		Seq:   seq,
	})
	if err != nil {
		s.log.Debug("submit rejected",
			zap.Uint64("order_id", id), zap.Error(err))
		return SubmitResult{}, err
	}

	s.publishTrades(trades, now)
	s.publishDepth(seq, now)

	_, resting := s.book.Resting(id)
	s.log.Debug("submit applied",
		zap.Uint64("order_id", id),
		zap.Uint64("seq", seq),
		zap.Int("trades", len(trades)),
		zap.Bool("resting", resting))

	return SubmitResult{OrderID: id, Seq: seq, Trades: trades, Resting: resting}, nil
}

func (s *OrderService) applyCancel(orderID uint64) bool {
	seq := s.seqGen.Next()
	now := time.Now().UnixNano()

	if s.opts.WAL != nil {
		rec := &wal.Record{
			Type:    wal.RecordCancel,
			Seq:     seq,
			At:      now,
			OrderID: orderID,
		}
		if err := s.opts.WAL.Append(rec); err != nil {
			s.log.Error("wal append failed", zap.Error(err))
			return false
		}
	}

	ok := s.book.Cancel(orderID)
	if ok {
		s.publishDepth(seq, now)
	}
	s.log.Debug("cancel applied",
		zap.Uint64("order_id", orderID), zap.Bool("found", ok))
	return ok
}

func (s *OrderService) publishTrades(trades []book.Trade, now int64) {
	for _, tr := range trades {
		ev := TradeEvent{
			Symbol:  s.opts.Symbol,
			Seq:     s.tradeSeq.Next(),
			TakerID: tr.TakerID,
			MakerID: tr.MakerID,
			Price:   tr.Price,
			Qty:     tr.Qty,
			At:      now,
		}
		s.recent.add(ev)

		if s.opts.Outbox != nil {
			payload, err := json.Marshal(ev)
			if err == nil {
				err = s.opts.Outbox.Put(ev.Seq, payload)
			}
			if err != nil {
				s.log.Error("outbox put failed",
					zap.Uint64("trade_seq", ev.Seq), zap.Error(err))
			}
		}
		for _, sink := range s.opts.Sinks {
			sink.PublishTrade(ev)
		}
	}
}

func (s *OrderService) publishDepth(seq uint64, now int64) {
	if len(s.opts.Sinks) == 0 {
		return
	}
	ev := DepthEvent{
		Symbol: s.opts.Symbol,
		Seq:    seq,
		At:     now,
		Depth:  s.book.Depth(s.opts.DepthLimit),
	}
	for _, sink := range s.opts.Sinks {
		sink.PublishDepth(ev)
	}
}
