package book

// DepthLevel is one aggregated price level in a depth snapshot.
type DepthLevel struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth is an aggregated view of the book, best prices first on both
// sides. It holds no references into live engine state.
type Depth struct {
	Bids []DepthLevel `json:"bids"`
	Asks []DepthLevel `json:"asks"`
}

// Depth snapshots up to limit levels per side, best first. limit <= 0
// means all levels.
func (b *Book) Depth(limit int) Depth {
	return Depth{
		Bids: collectDepth(b.bids, limit),
		Asks: collectDepth(b.asks, limit),
	}
}

func collectDepth(s *BookSide, limit int) []DepthLevel {
	out := make([]DepthLevel, 0, s.Levels())
	s.WalkBest(func(lvl *PriceLevel) bool {
		out = append(out, DepthLevel{
			Price:  lvl.Price,
			Qty:    lvl.TotalQty,
			Orders: lvl.OrderCount,
		})
		return limit <= 0 || len(out) < limit
	})
	return out
}
