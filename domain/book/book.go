package book

// Book is a single-instrument continuous double-auction matching engine.
// Incoming limit orders match against the opposite side under strict
// price-time priority; unmatched quantity rests on the order's own side.
//
// Book is deliberately single-threaded: Submit and Cancel run to
// completion and must be driven from one goroutine (the gateway funnels
// all commands through a single writer, see service.OrderService).
type Book struct {
	bids *BookSide
	asks *BookSide

	// orders maps a resting order's id to its node. An id is present
	// here if and only if the order is linked into some price level.
	orders map[uint64]*Order
}

func New() *Book {
	return &Book{
		bids:   newBookSide(Bid),
		asks:   newBookSide(Ask),
		orders: make(map[uint64]*Order),
	}
}

// Submit matches o against the opposite side and rests any remainder.
// It returns the executed trades in execution order: best price first,
// oldest order first within a price. Validation happens before any
// mutation, so a returned error means the book is untouched.
func (b *Book) Submit(o Order) ([]Trade, error) {
	if o.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if o.Qty <= 0 {
		return nil, ErrInvalidQty
	}
	if _, exists := b.orders[o.ID]; exists {
		return nil, ErrDuplicateID
	}

	trades := b.match(&o)
	if o.Qty > 0 {
		b.rest(o)
	}
	return trades, nil
}

// Cancel removes a resting order. It returns false when the id is
// unknown, already filled, or already cancelled.
func (b *Book) Cancel(id uint64) bool {
	o, ok := b.orders[id]
	if !ok {
		return false
	}

	lvl := o.level
	lvl.unlink(o)
	if lvl.Empty() {
		b.sideOf(o.Side).dropLevel(lvl.Price)
	}
	delete(b.orders, id)
	return true
}

// match consumes resting liquidity on the side opposite taker while the
// taker's price still crosses the best resting price.
func (b *Book) match(taker *Order) []Trade {
	var trades []Trade
	opposite := b.sideOf(taker.Side.Opposite())

	for taker.Qty > 0 {
		best := opposite.BestLevel()
		if best == nil || !crosses(taker.Side, taker.Price, best.Price) {
			break
		}

		// Oldest order at the best price has time priority.
		maker := best.Head()
		fill := min(taker.Qty, maker.Qty)
		taker.Qty -= fill
		maker.Qty -= fill
		best.reduce(fill)

		trades = append(trades, Trade{
			TakerID: taker.ID,
			MakerID: maker.ID,
			Price:   maker.Price,
			Qty:     fill,
		})

		if maker.Qty == 0 {
			best.popHead()
			delete(b.orders, maker.ID)
			if best.Empty() {
				opposite.dropLevel(best.Price)
			}
		}
		// A partially filled maker implies the taker is exhausted and
		// the loop exits on its own.
	}
	return trades
}

func (b *Book) rest(o Order) {
	node := &Order{
		ID:    o.ID,
		Side:  o.Side,
		Price: o.Price,
		Qty:   o.Qty,
		Seq:   o.Seq,
	}
	b.sideOf(node.Side).getOrCreate(node.Price).enqueue(node)
	b.orders[node.ID] = node
}

func (b *Book) sideOf(s Side) *BookSide {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

func crosses(taker Side, takerPrice, makerPrice int64) bool {
	if taker == Bid {
		return takerPrice >= makerPrice
	}
	return takerPrice <= makerPrice
}

// ---- queries ----

// Bids returns the bid side for read-only traversal.
func (b *Book) Bids() *BookSide { return b.bids }

// Asks returns the ask side for read-only traversal.
func (b *Book) Asks() *BookSide { return b.asks }

// BestBid reports the highest resting bid price.
func (b *Book) BestBid() (int64, bool) { return b.bids.BestPrice() }

// BestAsk reports the lowest resting ask price.
func (b *Book) BestAsk() (int64, bool) { return b.asks.BestPrice() }

// Resting returns a copy of the resting order with the given id.
func (b *Book) Resting(id uint64) (Order, bool) {
	o, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return Order{ID: o.ID, Side: o.Side, Price: o.Price, Qty: o.Qty, Seq: o.Seq}, true
}

// RestingCount returns the number of resting orders across both sides.
func (b *Book) RestingCount() int {
	return len(b.orders)
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
