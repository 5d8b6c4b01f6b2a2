package reserver

import "testing"

func TestReserveReleaseRoundTrip(t *testing.T) {
	r := New(8, 16)
	h := r.Reserve(40)
	if r.TotalBlocks() != 1 {
		t.Fatalf("expected 1 block, got %d", r.TotalBlocks())
	}
	if r.IsEmpty() {
		t.Fatal("reserver should not be empty after a reservation")
	}
	r.Release(h)
	if !r.IsEmpty() {
		t.Fatal("reserver should be empty after releasing the only reservation")
	}
	if r.TotalBlocks() != 1 {
		t.Fatalf("expected canonical block to remain, got %d", r.TotalBlocks())
	}
}

// TestReleaseDropsEmptyTrailingBlockWithoutExplicitCompact mirrors the
// original engine's TestReserverShrink: grow into a second block, release
// its sole reservation, and assert TotalBlocks()==1 immediately — Release
// alone must restore the canonical-block invariant.
func TestReleaseDropsEmptyTrailingBlockWithoutExplicitCompact(t *testing.T) {
	r := New(1, 4)
	h1 := r.Reserve(4) // fills block 0
	h2 := r.Reserve(4) // grows block 1
	if r.TotalBlocks() != 2 {
		t.Fatalf("expected 2 blocks before release, got %d", r.TotalBlocks())
	}
	r.Release(h2)
	if r.TotalBlocks() != 1 {
		t.Fatalf("expected block 1 dropped immediately after its release, got %d", r.TotalBlocks())
	}
	r.Release(h1)
	if !r.IsEmpty() || r.TotalBlocks() != 1 {
		t.Fatalf("expected 1 canonical block and fully empty, got blocks=%d empty=%v", r.TotalBlocks(), r.IsEmpty())
	}
}

func TestReserveGrowsNewBlockWhenNoneFit(t *testing.T) {
	r := New(1, 4)
	h1 := r.Reserve(4)
	h2 := r.Reserve(4)
	if h1.blockIdx == h2.blockIdx {
		t.Fatalf("expected a second block once the first is full")
	}
	if r.TotalBlocks() != 2 {
		t.Fatalf("expected 2 blocks, got %d", r.TotalBlocks())
	}
}

func TestTryExpandSucceedsWhenFollowingCellsAreFree(t *testing.T) {
	r := New(1, 16)
	h := r.Reserve(4)
	grown, ok := r.TryExpand(h, 8)
	if !ok {
		t.Fatal("expected expand to succeed into free trailing cells")
	}
	if grown.cells != 8 {
		t.Fatalf("expected 8 cells after expand, got %d", grown.cells)
	}
}

func TestTryExpandFailsWhenBlocked(t *testing.T) {
	r := New(1, 16)
	h := r.Reserve(4)
	_ = r.Reserve(4) // occupies the cells immediately after h
	_, ok := r.TryExpand(h, 8)
	if ok {
		t.Fatal("expected expand to fail when the next cells are in use")
	}
}

func TestShrinkReleasesTrailingCells(t *testing.T) {
	r := New(1, 16)
	h := r.Reserve(8)
	shrunk, ok := r.Shrink(h, 3)
	if !ok || shrunk.cells != 3 {
		t.Fatalf("expected shrink to 3 cells, got %+v ok=%v", shrunk, ok)
	}
	if r.FreeCellsInBlock(shrunk) < 5 {
		t.Fatalf("expected released trailing cells to be free")
	}
}

func TestHandleBytesSpansReservedRegion(t *testing.T) {
	r := New(1, 16)
	h := r.Reserve(5)
	b := h.Bytes(r)
	if len(b) != 5 {
		t.Fatalf("expected 5 bytes, got %d", len(b))
	}
}
