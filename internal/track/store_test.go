package track

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStoreUpsertGetRemove(t *testing.T) {
	t.Parallel()

	s := NewStore()
	now := time.Now()
	in := Track{ID: 7, RangeM: 1000.0, VelocityMPS: -50.0, AngleDeg: 90.0, LastSeen: now}

	s.Upsert(in)
	got, ok := s.Get(7)
	if !ok {
		t.Fatal("Get(7) reported absent after Upsert")
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("track mismatch (-want +got):\n%s", diff)
	}

	if _, ok := s.Get(8); ok {
		t.Error("Get(8) reported present for unknown id")
	}

	s.Remove(7)
	if _, ok := s.Get(7); ok {
		t.Error("Get(7) reported present after Remove")
	}
}

func TestStoreAllReturnsSortedCopies(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Upsert(Track{ID: 3, RangeM: 300})
	s.Upsert(Track{ID: 1, RangeM: 100})
	s.Upsert(Track{ID: 2, RangeM: 200})

	snap := s.All()
	if len(snap) != 3 {
		t.Fatalf("All() returned %d tracks, want 3", len(snap))
	}
	for i, want := range []int64{1, 2, 3} {
		if snap[i].ID != want {
			t.Errorf("snap[%d].ID = %d, want %d", i, snap[i].ID, want)
		}
	}

	// The snapshot must be immune to later store mutation.
	s.Upsert(Track{ID: 1, RangeM: 999})
	if snap[0].RangeM != 100 {
		t.Errorf("snapshot mutated by later Upsert: RangeM = %v", snap[0].RangeM)
	}
}

func TestStoreClearKeepsIDCounter(t *testing.T) {
	t.Parallel()

	s := NewStore()
	id := s.NextID()
	s.Upsert(Track{ID: id})
	s.Clear()

	if got := s.Len(); got != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", got)
	}
	if next := s.NextID(); next <= id {
		t.Errorf("NextID() = %d after Clear, want > %d (ids are never reused)", next, id)
	}
}

func TestNextIDMonotonic(t *testing.T) {
	t.Parallel()

	s := NewStore()
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := s.NextID()
		if id <= prev {
			t.Fatalf("NextID() = %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNextIDConcurrentUnique(t *testing.T) {
	t.Parallel()

	const workers = 8
	const perWorker = 500

	s := NewStore()
	ids := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- s.NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, workers*perWorker)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %d allocated twice", id)
		}
		seen[id] = true
	}
}

// Clear and All racing from separate goroutines must never observe a torn
// snapshot: every All result is either the full pre-clear set or empty.
func TestClearAllNoTornSnapshot(t *testing.T) {
	t.Parallel()

	const tracks = 10
	for round := 0; round < 50; round++ {
		s := NewStore()
		for i := 1; i <= tracks; i++ {
			s.Upsert(Track{ID: int64(i)})
		}

		var wg sync.WaitGroup
		var snap []Track
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Clear()
		}()
		go func() {
			defer wg.Done()
			snap = s.All()
		}()
		wg.Wait()

		if n := len(snap); n != 0 && n != tracks {
			t.Fatalf("round %d: torn snapshot of %d tracks, want 0 or %d", round, n, tracks)
		}
	}
}

func TestWithLockSpawnAndSweep(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.WithLock(func(tx *Tx) {
		for i := 0; i < 3; i++ {
			id := tx.NextID()
			tx.Put(Track{ID: id, RangeM: float64(100 * i)})
		}
		if tx.Len() != 3 {
			t.Errorf("Len() = %d inside lock, want 3", tx.Len())
		}

		var cull []int64
		tx.Each(func(tr *Track) {
			tr.RangeM += 10
			if tr.RangeM < 50 {
				cull = append(cull, tr.ID)
			}
		})
		for _, id := range cull {
			tx.Remove(id)
		}
	})

	// Track spawned with RangeM 0 advanced to 10, below the cull threshold.
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d after sweep, want 2", got)
	}
	for _, tr := range s.All() {
		if tr.RangeM < 50 {
			t.Errorf("track %d survived with range %v", tr.ID, tr.RangeM)
		}
	}
}
