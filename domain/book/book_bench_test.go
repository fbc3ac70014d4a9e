package book

import "testing"

func BenchmarkSubmitResting(b *testing.B) {
	bk := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternate prices so bids never cross.
		_, _ = bk.Submit(Order{
			ID:    uint64(i + 1),
			Side:  Bid,
			Price: int64(90 + i%10),
			Qty:   1000,
			Seq:   uint64(i + 1),
		})
	}
}

func BenchmarkSubmitMatching(b *testing.B) {
	bk := New()
	for i := 0; i < b.N; i++ {
		_, _ = bk.Submit(Order{
			ID:    uint64(i + 1),
			Side:  Bid,
			Price: 100,
			Qty:   1,
			Seq:   uint64(i + 1),
		})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bk.Submit(Order{
			ID:    uint64(b.N + i + 1),
			Side:  Ask,
			Price: 100,
			Qty:   1,
			Seq:   uint64(b.N + i + 1),
		})
	}
}

func BenchmarkCancel(b *testing.B) {
	bk := New()
	for i := 0; i < b.N; i++ {
		_, _ = bk.Submit(Order{
			ID:    uint64(i + 1),
			Side:  Bid,
			Price: int64(90 + i%10),
			Qty:   1000,
			Seq:   uint64(i + 1),
		})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Cancel(uint64(i + 1))
	}
}

func BenchmarkDepth(b *testing.B) {
	bk := New()
	for i := 0; i < 1000; i++ {
		_, _ = bk.Submit(Order{
			ID:    uint64(i + 1),
			Side:  Bid,
			Price: int64(1 + i%50),
			Qty:   10,
			Seq:   uint64(i + 1),
		})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bk.Depth(10)
	}
}
