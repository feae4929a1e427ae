package snapshot

import "sync/atomic"

// Store publishes snapshots to readers. Current never blocks and always sees a
// complete snapshot; Replace swaps the whole snapshot in one atomic step.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Current returns the latest published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace installs next for all subsequent readers. A nil snapshot is ignored.
func (s *Store) Replace(next *Snapshot) {
	if next == nil {
		return
	}
	s.current.Store(next)
	s.version.Add(1)
}

// Version counts the snapshots published so far.
func (s *Store) Version() uint64 {
	return s.version.Load()
}
