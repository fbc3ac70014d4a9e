package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic uint64 values. The gateway uses
// one instance for arrival sequence numbers and another for
// gateway-assigned order ids, so both spaces survive WAL replay
// deterministically.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose next value is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next value in the sequence.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued value.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Advance raises the sequencer to at least v. Used after WAL replay.
func (s *Sequencer) Advance(v uint64) {
	for {
		cur := s.last.Load()
		if cur >= v || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
