// Package track holds the shared collection of simulated radar contacts.
//
// The Store is the only mutable state shared between the environment
// simulator and the connection handlers. A single mutex covers the whole
// collection and the ID counter so a tick, a scan and a clear can never
// interleave partially.
package track

import (
	"sort"
	"sync"
	"time"
)

// Track is one simulated radar contact.
type Track struct {
	ID          int64     // positive, monotonic, never reused in-process
	RangeM      float64   // distance in meters
	VelocityMPS float64   // radial velocity, negative = closing, clamped to ±800
	AngleDeg    float64   // bearing, wrapped into [0, 360)
	LastSeen    time.Time // time of last mutation
}

// Store maps track IDs to track state behind a single exclusive lock.
type Store struct {
	mu     sync.Mutex
	tracks map[int64]*Track
	nextID int64
}

// NewStore returns an empty store whose first allocated ID is 1.
func NewStore() *Store {
	return &Store{tracks: make(map[int64]*Track)}
}

// Tx gives WithLock callbacks access to the collection while the store lock
// is held. It must not be retained past the callback.
type Tx struct {
	s *Store
}

// WithLock runs fn with exclusive access to the collection. Multi-step work
// such as a simulator tick or a scan's spawn-then-snapshot uses this so the
// whole sequence is one critical section.
func (s *Store) WithLock(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Len reports the number of live tracks.
func (tx *Tx) Len() int { return len(tx.s.tracks) }

// NextID allocates the next track identifier. The counter is shared with
// every other spawner so concurrently created tracks never collide.
func (tx *Tx) NextID() int64 {
	tx.s.nextID++
	return tx.s.nextID
}

// Put inserts or replaces a track.
func (tx *Tx) Put(t Track) {
	c := t
	tx.s.tracks[t.ID] = &c
}

// Get returns a copy of the track with the given ID.
func (tx *Tx) Get(id int64) (Track, bool) {
	t, ok := tx.s.tracks[id]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// Remove deletes the track with the given ID, if present.
func (tx *Tx) Remove(id int64) {
	delete(tx.s.tracks, id)
}

// Each calls fn for every live track. fn may mutate the track in place.
// Removing during iteration is not supported; collect IDs and remove after.
func (tx *Tx) Each(fn func(t *Track)) {
	for _, t := range tx.s.tracks {
		fn(t)
	}
}

// Snapshot returns value copies of every live track, sorted by ascending ID.
func (tx *Tx) Snapshot() []Track {
	out := make([]Track, 0, len(tx.s.tracks))
	for _, t := range tx.s.tracks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Upsert inserts or replaces a single track.
func (s *Store) Upsert(t Track) {
	s.WithLock(func(tx *Tx) { tx.Put(t) })
}

// Get returns a copy of the track with the given ID.
func (s *Store) Get(id int64) (Track, bool) {
	var (
		t  Track
		ok bool
	)
	s.WithLock(func(tx *Tx) { t, ok = tx.Get(id) })
	return t, ok
}

// Remove deletes the track with the given ID, if present.
func (s *Store) Remove(id int64) {
	s.WithLock(func(tx *Tx) { tx.Remove(id) })
}

// All returns a consistent snapshot of every live track, sorted by ID. The
// copies are taken before the lock is released so callers can iterate without
// racing the simulator.
func (s *Store) All() []Track {
	var out []Track
	s.WithLock(func(tx *Tx) { out = tx.Snapshot() })
	return out
}

// Clear removes every track. The ID counter is not reset; identifiers are
// never reused within a process lifetime.
func (s *Store) Clear() {
	s.WithLock(func(tx *Tx) {
		clear(tx.s.tracks)
	})
}

// Len reports the number of live tracks.
func (s *Store) Len() int {
	var n int
	s.WithLock(func(tx *Tx) { n = tx.Len() })
	return n
}

// NextID allocates the next track identifier.
func (s *Store) NextID() int64 {
	var id int64
	s.WithLock(func(tx *Tx) { id = tx.NextID() })
	return id
}
