package book

import "testing"

func TestLevelTreeUpsertFindRemove(t *testing.T) {
	tree := newLevelTree()
	lvl := tree.upsert(100)
	if lvl == nil {
		t.Fatal("upsert returned nil")
	}
	if got := tree.find(100); got != lvl {
		t.Error("find did not return the upserted level")
	}

	tree.upsert(200)
	if tree.min().Price != 100 {
		t.Error("expected min=100")
	}
	if tree.max().Price != 200 {
		t.Error("expected max=200")
	}

	if !tree.remove(100) {
		t.Error("remove failed")
	}
	if tree.find(100) != nil {
		t.Error("expected level 100 to be gone")
	}
	if tree.len() != 1 {
		t.Errorf("expected len=1, got %d", tree.len())
	}
}

func TestLevelTreeRemoveMissing(t *testing.T) {
	tree := newLevelTree()
	if tree.remove(123) {
		t.Error("expected false when removing a missing price")
	}
}

func TestLevelTreeEmptyMinMax(t *testing.T) {
	tree := newLevelTree()
	if tree.min() != nil || tree.max() != nil {
		t.Error("expected nil min/max on empty tree")
	}
}

func TestLevelTreeUpsertSamePrice(t *testing.T) {
	tree := newLevelTree()
	a := tree.upsert(150)
	b := tree.upsert(150)
	if a != b {
		t.Error("upsert should return the existing level for a known price")
	}
	if tree.len() != 1 {
		t.Errorf("expected len=1, got %d", tree.len())
	}
}

func TestLevelTreeSortedTraversal(t *testing.T) {
	tree := newLevelTree()
	prices := []int64{500, 100, 300, 200, 400, 250, 150}
	for _, p := range prices {
		tree.upsert(p)
	}

	var asc []int64
	tree.ascend(func(lvl *PriceLevel) bool {
		asc = append(asc, lvl.Price)
		return true
	})
	for i := 1; i < len(asc); i++ {
		if asc[i-1] >= asc[i] {
			t.Fatalf("ascend out of order: %v", asc)
		}
	}

	var desc []int64
	tree.descend(func(lvl *PriceLevel) bool {
		desc = append(desc, lvl.Price)
		return true
	})
	for i := 1; i < len(desc); i++ {
		if desc[i-1] <= desc[i] {
			t.Fatalf("descend out of order: %v", desc)
		}
	}

	if len(asc) != len(prices) || len(desc) != len(prices) {
		t.Errorf("traversal missed levels: asc=%d desc=%d want=%d",
			len(asc), len(desc), len(prices))
	}
}

func TestLevelTreeTraversalEarlyStop(t *testing.T) {
	tree := newLevelTree()
	for p := int64(1); p <= 10; p++ {
		tree.upsert(p)
	}

	seen := 0
	tree.ascend(func(*PriceLevel) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Errorf("expected traversal to stop after 3 levels, saw %d", seen)
	}
}

func TestLevelTreeRemoveAllInRandomOrder(t *testing.T) {
	tree := newLevelTree()
	prices := []int64{8, 3, 10, 1, 6, 14, 4, 7, 13, 2, 5, 9, 11, 12}
	for _, p := range prices {
		tree.upsert(p)
	}
	order := []int64{6, 1, 14, 8, 3, 10, 13, 2, 4, 7, 5, 9, 12, 11}
	for i, p := range order {
		if !tree.remove(p) {
			t.Fatalf("remove(%d) failed", p)
		}
		if tree.len() != len(prices)-i-1 {
			t.Fatalf("len=%d after %d removals", tree.len(), i+1)
		}
	}
	if tree.min() != nil || tree.max() != nil {
		t.Error("expected empty tree after removing everything")
	}
}
