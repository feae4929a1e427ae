package snapshot_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/telereso/snapshot"
)

type SnapshotSuite struct {
	suite.Suite
}

func TestSnapshotSuite(t *testing.T) {
	suite.Run(t, new(SnapshotSuite))
}

func (s *SnapshotSuite) TestBuilderCopiesValues() {
	values := map[string]string{"hello": "Hi"}
	builder := snapshot.NewBuilder().SetGroup("strings", values)
	snap := builder.Build()

	values["hello"] = "mutated"
	builder.SetGroup("strings", map[string]string{"hello": "later"})

	got, ok := snap.Lookup("strings", "hello")
	s.True(ok)
	s.Equal("Hi", got)

	copied := snap.Group("strings")
	copied["hello"] = "changed"
	got, _ = snap.Lookup("strings", "hello")
	s.Equal("Hi", got)
}

func (s *SnapshotSuite) TestLookupAndGroups() {
	snap := snapshot.NewBuilder().
		SetGroup("strings", map[string]string{"hello": "Hi"}).
		SetGroup("strings_es", nil).
		Build()

	s.True(snap.HasGroup("strings_es"))
	s.False(snap.HasGroup("drawables"))
	s.Equal([]string{"strings", "strings_es"}, snap.Groups())
	s.Equal(1, snap.Len())

	_, ok := snap.Lookup("strings_es", "hello")
	s.False(ok)
	_, ok = snap.Lookup("missing", "hello")
	s.False(ok)

	var nilSnap *snapshot.Snapshot
	_, ok = nilSnap.Lookup("strings", "hello")
	s.False(ok)
	s.Zero(nilSnap.Len())
}

func (s *SnapshotSuite) TestFingerprint() {
	first := snapshot.NewBuilder().
		SetGroup("strings", map[string]string{"a": "1", "b": "2"}).
		SetGroup("drawables", map[string]string{"logo": "https://cdn/logo.png"}).
		Build()
	same := snapshot.NewBuilder().
		SetGroup("drawables", map[string]string{"logo": "https://cdn/logo.png"}).
		SetGroup("strings", map[string]string{"b": "2", "a": "1"}).
		Build()
	moved := snapshot.NewBuilder().
		SetGroup("strings", map[string]string{"a": "1"}).
		SetGroup("strings_b", map[string]string{"b": "2"}).
		SetGroup("drawables", map[string]string{"logo": "https://cdn/logo.png"}).
		Build()

	s.Equal(first.Fingerprint(), same.Fingerprint())
	s.NotEqual(first.Fingerprint(), moved.Fingerprint())
	s.NotEqual(snapshot.Empty().Fingerprint(), first.Fingerprint())
}

func (s *SnapshotSuite) TestStoreReplace() {
	store := snapshot.NewStore()
	s.NotNil(store.Current())
	s.Zero(store.Current().Len())
	s.Zero(store.Version())

	next := snapshot.NewBuilder().SetGroup("strings", map[string]string{"hello": "Hi"}).Build()
	store.Replace(next)
	store.Replace(nil)

	s.Same(next, store.Current())
	s.Equal(uint64(1), store.Version())
}

// Readers racing a writer must only ever see generation-consistent snapshots.
func (s *SnapshotSuite) TestStoreReplaceIsAtomicForReaders() {
	store := snapshot.NewStore()
	build := func(generation int) *snapshot.Snapshot {
		value := fmt.Sprintf("gen-%d", generation)
		return snapshot.NewBuilder().
			SetGroup("strings", map[string]string{"hello": value}).
			SetGroup("strings_es", map[string]string{"hello": value}).
			Build()
	}
	store.Replace(build(0))

	const generations = 500
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range generations {
				snap := store.Current()
				base, _ := snap.Lookup("strings", "hello")
				local, _ := snap.Lookup("strings_es", "hello")
				if base != local {
					errs <- fmt.Errorf("torn snapshot: %q vs %q", base, local)
					return
				}
			}
		}()
	}

	for generation := 1; generation <= generations; generation++ {
		store.Replace(build(generation))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		s.Fail(err.Error())
	}
}
