package service

// tradeRing keeps the most recent trades for the /trades query. It is
// touched only from the gateway's writer goroutine.
type tradeRing struct {
	buf  []TradeEvent
	next int
	full bool
}

func newTradeRing(capacity int) *tradeRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &tradeRing{buf: make([]TradeEvent, capacity)}
}

func (r *tradeRing) add(ev TradeEvent) {
	r.buf[r.next] = ev
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// last returns up to n trades, newest first.
func (r *tradeRing) last(n int) []TradeEvent {
	size := r.next
	if r.full {
		size = len(r.buf)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]TradeEvent, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
