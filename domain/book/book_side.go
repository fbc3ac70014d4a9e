package book

// BookSide holds every price level on one side of the book. Iteration
// order starts at the best price: highest first for bids, lowest first
// for asks. A side never contains an empty level.
type BookSide struct {
	side   Side
	levels *levelTree
}

func newBookSide(side Side) *BookSide {
	return &BookSide{
		side:   side,
		levels: newLevelTree(),
	}
}

// BestLevel returns the level at the best price, or nil when the side
// is empty.
func (s *BookSide) BestLevel() *PriceLevel {
	if s.side == Bid {
		return s.levels.max()
	}
	return s.levels.min()
}

// BestPrice reports the best price on this side. ok is false when the
// side is empty.
func (s *BookSide) BestPrice() (price int64, ok bool) {
	lvl := s.BestLevel()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// Levels returns the number of distinct resting prices.
func (s *BookSide) Levels() int {
	return s.levels.len()
}

// WalkBest visits levels from the best price outward until fn returns
// false.
func (s *BookSide) WalkBest(fn func(*PriceLevel) bool) {
	if s.side == Bid {
		s.levels.descend(fn)
		return
	}
	s.levels.ascend(fn)
}

func (s *BookSide) getOrCreate(price int64) *PriceLevel {
	return s.levels.upsert(price)
}

func (s *BookSide) dropLevel(price int64) {
	s.levels.remove(price)
}
