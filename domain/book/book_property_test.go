package book

import (
	"testing"

	"pgregory.net/rapid"
)

// Price compatibility alone decides whether two opposing orders trade.
func TestPropertyPriceCompatibility(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bidPrice := rapid.Int64Range(1, 10_000).Draw(t, "bidPrice")
		askPrice := rapid.Int64Range(1, 10_000).Draw(t, "askPrice")
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")

		b := New()
		if _, err := b.Submit(Order{ID: 1, Side: Ask, Price: askPrice, Qty: qty, Seq: 1}); err != nil {
			t.Fatalf("ask rejected: %v", err)
		}
		trades, err := b.Submit(Order{ID: 2, Side: Bid, Price: bidPrice, Qty: qty, Seq: 2})
		if err != nil {
			t.Fatalf("bid rejected: %v", err)
		}

		shouldMatch := bidPrice >= askPrice
		if shouldMatch && len(trades) == 0 {
			t.Fatalf("bid=%d ask=%d should trade but did not", bidPrice, askPrice)
		}
		if !shouldMatch && len(trades) != 0 {
			t.Fatalf("bid=%d ask=%d should not trade but produced %d trades",
				bidPrice, askPrice, len(trades))
		}
	})
}

// Random order flow never leaves a crossed book, never desyncs the index,
// and always conserves quantity per submit.
func TestPropertyBookInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := New()
		live := make(map[uint64]bool)
		nextID := uint64(1)
		seq := uint64(1)

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(live) > 0 && rapid.Float64Range(0, 1).Draw(t, "op") < 0.25 {
				// Cancel a random known id; some are already gone.
				for id := range live {
					b.Cancel(id)
					if _, resting := b.Resting(id); resting {
						t.Fatalf("order %d still resting after cancel", id)
					}
					delete(live, id)
					break
				}
				continue
			}

			side := Bid
			if rapid.Bool().Draw(t, "side") {
				side = Ask
			}
			o := Order{
				ID:    nextID,
				Side:  side,
				Price: rapid.Int64Range(90, 110).Draw(t, "price"),
				Qty:   rapid.Int64Range(1, 50).Draw(t, "qty"),
				Seq:   seq,
			}
			nextID++
			seq++

			trades, err := b.Submit(o)
			if err != nil {
				t.Fatalf("submit rejected valid order: %v", err)
			}

			var executed int64
			for _, tr := range trades {
				executed += tr.Qty
				if tr.Qty <= 0 {
					t.Fatalf("non-positive trade qty: %+v", tr)
				}
				delete(live, tr.MakerID)
			}
			if rem, ok := b.Resting(o.ID); ok {
				live[o.ID] = true
				if executed+rem.Qty != o.Qty {
					t.Fatalf("qty not conserved: executed=%d resting=%d initial=%d",
						executed, rem.Qty, o.Qty)
				}
			} else if executed != o.Qty {
				// A taker that is not resting must be fully filled.
				t.Fatalf("taker neither resting nor fully filled: executed=%d initial=%d",
					executed, o.Qty)
			}

			bid, hasBid := b.BestBid()
			ask, hasAsk := b.BestAsk()
			if hasBid && hasAsk && bid >= ask {
				t.Fatalf("crossed book: bid=%d ask=%d", bid, ask)
			}
		}
	})
}
