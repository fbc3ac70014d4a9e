package book

import "errors"

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Submit rejections. Validation happens before any book mutation, so a
// rejected order leaves no trace in engine state.
var (
	ErrInvalidPrice = errors.New("book: price must be positive")
	ErrInvalidQty   = errors.New("book: quantity must be positive")
	ErrDuplicateID  = errors.New("book: order id already resting")
)

// Order is a limit order. Price is an integer number of ticks; Qty is the
// remaining (unfilled) quantity. Seq is the arrival sequence that
// establishes time priority within a price level.
//
// While resting, the Order struct itself is the node of its price level's
// FIFO list. The book's order index holds a pointer to this node, so a
// cancel unlinks it in O(1) without scanning or renumbering the level.
type Order struct {
	ID    uint64
	Side  Side
	Price int64
	Qty   int64
	Seq   uint64

	level      *PriceLevel
	next, prev *Order
}

// Next walks the level queue oldest-first. Read-only traversal helper.
func (o *Order) Next() *Order {
	return o.next
}

// Trade records one execution between an incoming (taker) order and a
// resting (maker) order. Price is always the maker's price: the taker
// receives the improvement when it crosses at a better price.
type Trade struct {
	TakerID uint64
	MakerID uint64
	Price   int64
	Qty     int64
}
