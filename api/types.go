package api

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"matchbook/domain/book"
	"matchbook/service"
)

// The engine works in integer ticks; prices cross the API as decimal
// strings. PriceConverter is the only place the two meet.
type PriceConverter struct {
	tick decimal.Decimal
}

func NewPriceConverter(tickSize string) (PriceConverter, error) {
	tick, err := decimal.NewFromString(tickSize)
	if err != nil {
		return PriceConverter{}, fmt.Errorf("api: bad tick size %q: %w", tickSize, err)
	}
	if tick.Sign() <= 0 {
		return PriceConverter{}, errors.New("api: tick size must be positive")
	}
	return PriceConverter{tick: tick}, nil
}

// ToTicks parses a display price and converts it to ticks. Prices that
// are not an exact multiple of the tick size are rejected rather than
// rounded.
func (c PriceConverter) ToTicks(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("api: bad price %q: %w", s, err)
	}
	q := d.Div(c.tick)
	if !q.IsInteger() {
		return 0, fmt.Errorf("api: price %s is not a multiple of tick size %s", s, c.tick)
	}
	return q.IntPart(), nil
}

// FromTicks renders a tick price as a display string.
func (c PriceConverter) FromTicks(ticks int64) string {
	return c.tick.Mul(decimal.NewFromInt(ticks)).String()
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "buy", "bid":
		return book.Bid, nil
	case "sell", "ask":
		return book.Ask, nil
	default:
		return 0, fmt.Errorf("api: unknown side %q", s)
	}
}

// ---- request/response bodies ----

type placeOrderRequest struct {
	OrderID  uint64 `json:"order_id,omitempty"` // optional, 0 = assigned
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

type tradeJSON struct {
	TakerID uint64 `json:"taker_id"`
	MakerID uint64 `json:"maker_id"`
	Price   string `json:"price"`
	Qty     int64  `json:"qty"`
}

type placeOrderResponse struct {
	OrderID uint64      `json:"order_id"`
	Seq     uint64      `json:"seq"`
	Resting bool        `json:"resting"`
	Trades  []tradeJSON `json:"trades"`
}

type cancelOrderRequest struct {
	OrderID uint64 `json:"order_id"`
}

type cancelOrderResponse struct {
	Cancelled bool `json:"cancelled"`
}

type depthLevelJSON struct {
	Price  string `json:"price"`
	Qty    int64  `json:"qty"`
	Orders int    `json:"orders"`
}

type depthResponse struct {
	Symbol string           `json:"symbol"`
	Bids   []depthLevelJSON `json:"bids"`
	Asks   []depthLevelJSON `json:"asks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c PriceConverter) tradesJSON(trades []book.Trade) []tradeJSON {
	out := make([]tradeJSON, 0, len(trades))
	for _, tr := range trades {
		out = append(out, tradeJSON{
			TakerID: tr.TakerID,
			MakerID: tr.MakerID,
			Price:   c.FromTicks(tr.Price),
			Qty:     tr.Qty,
		})
	}
	return out
}

func (c PriceConverter) depthJSON(symbol string, d book.Depth) depthResponse {
	conv := func(levels []book.DepthLevel) []depthLevelJSON {
		out := make([]depthLevelJSON, 0, len(levels))
		for _, lvl := range levels {
			out = append(out, depthLevelJSON{
				Price:  c.FromTicks(lvl.Price),
				Qty:    lvl.Qty,
				Orders: lvl.Orders,
			})
		}
		return out
	}
	return depthResponse{Symbol: symbol, Bids: conv(d.Bids), Asks: conv(d.Asks)}
}

type tradeEventJSON struct {
	Symbol  string `json:"symbol"`
	Seq     uint64 `json:"seq"`
	TakerID uint64 `json:"taker_id"`
	MakerID uint64 `json:"maker_id"`
	Price   string `json:"price"`
	Qty     int64  `json:"qty"`
	At      int64  `json:"at"`
}

func (c PriceConverter) tradeEventsJSON(evs []service.TradeEvent) []tradeEventJSON {
	out := make([]tradeEventJSON, 0, len(evs))
	for _, ev := range evs {
		out = append(out, tradeEventJSON{
			Symbol:  ev.Symbol,
			Seq:     ev.Seq,
			TakerID: ev.TakerID,
			MakerID: ev.MakerID,
			Price:   c.FromTicks(ev.Price),
			Qty:     ev.Qty,
			At:      ev.At,
		})
	}
	return out
}
