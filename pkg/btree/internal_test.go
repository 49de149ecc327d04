package btree_test

import (
	"testing"

	"coredb/pkg/btree"
	"coredb/pkg/bufferpool"
	"coredb/pkg/disk"
	"coredb/pkg/page"
)

func newPool(t *testing.T, size int) *bufferpool.Pool {
	t.Helper()
	dm, _, err := disk.OpenTemp(t.TempDir())
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return bufferpool.New(size, dm, nil)
}

func TestLookupRoutesToCorrectChild(t *testing.T) {
	pool := newPool(t, 8)

	rootFrame, rootID, ok := pool.NewPage()
	if !ok {
		t.Fatalf("NewPage: could not allocate root")
	}
	defer pool.UnpinPage(rootID, true)

	root := btree.NewView[int64](rootFrame, btree.Int64Codec())
	root.Init(page.InvalidID)

	childA, idA, _ := pool.NewPage()
	childB, idB, _ := pool.NewPage()
	childC, idC, _ := pool.NewPage()
	btree.NewView[int64](childA, btree.Int64Codec()).Init(rootID)
	btree.NewView[int64](childB, btree.Int64Codec()).Init(rootID)
	btree.NewView[int64](childC, btree.Int64Codec()).Init(rootID)
	pool.UnpinPage(idA, true)
	pool.UnpinPage(idB, true)
	pool.UnpinPage(idC, true)

	root.PopulateNewRoot(idA, 5, idB)
	root.InsertNodeAfter(idB, 9, idC)

	cases := []struct {
		key  int64
		want page.ID
	}{
		{1, idA},
		{5, idB},
		{6, idB},
		{9, idC},
		{20, idC},
	}
	for _, c := range cases {
		if got := root.Lookup(c.key, btree.Int64Comparator); got != c.want {
			t.Errorf("Lookup(%d) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestKeyAtAndValueAtOutOfRangeReturnDefaults(t *testing.T) {
	pool := newPool(t, 4)
	frame, id, _ := pool.NewPage()
	defer pool.UnpinPage(id, true)

	n := btree.NewView[int64](frame, btree.Int64Codec())
	n.Init(page.InvalidID)

	if got := n.KeyAt(5); got != 0 {
		t.Errorf("KeyAt(5) = %d, want 0 (out of range)", got)
	}
	if got := n.ValueAt(5); got != page.InvalidID {
		t.Errorf("ValueAt(5) = %v, want InvalidID", got)
	}
}

func TestSetValueAtOutOfRangePanics(t *testing.T) {
	pool := newPool(t, 4)
	frame, id, _ := pool.NewPage()
	defer pool.UnpinPage(id, true)

	n := btree.NewView[int64](frame, btree.Int64Codec())
	n.Init(page.InvalidID)

	defer func() {
		if recover() == nil {
			t.Fatal("SetValueAt(5, ...) did not panic for out-of-range index")
		}
	}()
	n.SetValueAt(5, page.ID(1))
}

func TestMoveHalfToSplitsAndReparents(t *testing.T) {
	pool := newPool(t, 16)

	srcFrame, srcID, _ := pool.NewPage()
	dstFrame, dstID, _ := pool.NewPage()
	src := btree.NewView[int64](srcFrame, btree.Int64Codec())
	dst := btree.NewView[int64](dstFrame, btree.Int64Codec())
	src.Init(page.InvalidID)
	dst.Init(page.InvalidID)

	firstChild, firstChildID, _ := pool.NewPage()
	btree.NewView[int64](firstChild, btree.Int64Codec()).Init(srcID)
	pool.UnpinPage(firstChildID, true)
	src.SetValueAt(0, firstChildID)

	prev := firstChildID
	for _, key := range []int64{10, 20, 30} {
		childFrame, childID, ok := pool.NewPage()
		if !ok {
			t.Fatalf("NewPage for child %d failed", key)
		}
		btree.NewView[int64](childFrame, btree.Int64Codec()).Init(srcID)
		pool.UnpinPage(childID, true)
		src.InsertNodeAfter(prev, key, childID)
		prev = childID
	}

	if err := src.MoveHalfTo(dst, pool); err != nil {
		t.Fatalf("MoveHalfTo: %v", err)
	}

	if dst.GetSize() != 3 {
		t.Fatalf("recipient size = %d, want 3 (1 initial slot + 2 moved)", dst.GetSize())
	}
	movedChild := dst.ValueAt(1)
	frame, ok := pool.FetchPage(movedChild)
	if !ok {
		t.Fatalf("FetchPage(%v) failed", movedChild)
	}
	got := btree.NewView[int64](frame, btree.Int64Codec()).GetParentID()
	pool.UnpinPage(movedChild, false)
	if got != dstID {
		t.Errorf("moved child's parent = %v, want %v", got, dstID)
	}

	pool.UnpinPage(srcID, true)
	pool.UnpinPage(dstID, true)
}
