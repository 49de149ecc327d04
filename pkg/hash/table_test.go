package hash_test

import (
	"testing"

	"coredb/pkg/hash"

	"golang.org/x/sync/errgroup"
)

func TestInsertAndFind(t *testing.T) {
	table := hash.New[string, int](2, hash.StringHasher(hash.XxHash))
	table.Insert("a", 1)
	table.Insert("b", 2)
	table.Insert("c", 3)
	table.Insert("d", 4)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3, "d": 4} {
		got, ok := table.Find(key)
		if !ok || got != want {
			t.Fatalf("Find(%q) = (%d, %v), want (%d, true)", key, got, ok, want)
		}
	}
	if table.GetGlobalDepth() < 2 {
		t.Fatalf("GetGlobalDepth() = %d, want >= 2 after 4 inserts at bucket size 2",
			table.GetGlobalDepth())
	}
}

func TestInsertOverwritesInPlace(t *testing.T) {
	table := hash.New[string, int](2, hash.StringHasher(hash.XxHash))
	table.Insert("a", 1)
	table.Insert("a", 2)

	got, ok := table.Find("a")
	if !ok || got != 2 {
		t.Fatalf("Find(a) = (%d, %v), want (2, true)", got, ok)
	}
	if table.GetNumBuckets() != 1 {
		t.Fatalf("GetNumBuckets() = %d, want 1 (overwrite must not split)", table.GetNumBuckets())
	}
}

func TestRemove(t *testing.T) {
	table := hash.New[string, int](4, hash.StringHasher(hash.XxHash))
	table.Insert("a", 1)

	if !table.Remove("a") {
		t.Fatalf("Remove(a) = false, want true")
	}
	if table.Remove("a") {
		t.Fatalf("second Remove(a) = true, want false")
	}
	if _, ok := table.Find("a"); ok {
		t.Fatalf("Find(a) after Remove should report false")
	}
}

func TestConcurrentInsertsAreSafe(t *testing.T) {
	table := hash.New[int64, int64](4, hash.Int64Hasher(hash.XxHash))

	var g errgroup.Group
	const perWorker = 200
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				key := int64(w*perWorker + i)
				table.Insert(key, key*2)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent inserts returned error: %v", err)
	}

	for w := 0; w < 8; w++ {
		for i := 0; i < perWorker; i++ {
			key := int64(w*perWorker + i)
			got, ok := table.Find(key)
			if !ok || got != key*2 {
				t.Fatalf("Find(%d) = (%d, %v), want (%d, true)", key, got, ok, key*2)
			}
		}
	}
}
