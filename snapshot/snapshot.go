// Package snapshot holds the immutable view of all remote resource groups and
// the store that publishes it to concurrent readers.
package snapshot

import (
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Snapshot maps a group key to the resource values in that group.
// A Snapshot is never mutated once built.
type Snapshot struct {
	groups      map[string]map[string]string
	fingerprint uint64
}

// Empty returns a snapshot with no groups.
func Empty() *Snapshot {
	return NewBuilder().Build()
}

// Lookup returns the value stored for key in group.
func (s *Snapshot) Lookup(group, key string) (string, bool) {
	if s == nil {
		return "", false
	}
	values, ok := s.groups[group]
	if !ok {
		return "", false
	}
	value, ok := values[key]
	return value, ok
}

// HasGroup reports whether the group exists, even if it holds no values.
func (s *Snapshot) HasGroup(group string) bool {
	if s == nil {
		return false
	}
	_, ok := s.groups[group]
	return ok
}

// Groups lists the group keys in sorted order.
func (s *Snapshot) Groups() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.groups))
}

// Group returns a copy of the values of one group.
func (s *Snapshot) Group(group string) map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return maps.Clone(s.groups[group])
}

// Len is the total number of values across all groups.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, values := range s.groups {
		total += len(values)
	}
	return total
}

// Fingerprint identifies the snapshot content. Two snapshots with the same
// groups and values share a fingerprint.
func (s *Snapshot) Fingerprint() uint64 {
	if s == nil {
		return 0
	}
	return s.fingerprint
}

// Builder accumulates groups for a new snapshot.
type Builder struct {
	groups map[string]map[string]string
}

func NewBuilder() *Builder {
	return &Builder{groups: map[string]map[string]string{}}
}

// SetGroup replaces the values of group. A nil map stores an empty group.
func (b *Builder) SetGroup(group string, values map[string]string) *Builder {
	if values == nil {
		values = map[string]string{}
	}
	b.groups[group] = values
	return b
}

// Build copies the accumulated groups into a new Snapshot, so later changes to
// the builder or to the maps handed to SetGroup never reach the result.
func (b *Builder) Build() *Snapshot {
	groups := make(map[string]map[string]string, len(b.groups))
	for name, values := range b.groups {
		groups[name] = maps.Clone(values)
	}
	return &Snapshot{
		groups:      groups,
		fingerprint: fingerprint(groups),
	}
}

func fingerprint(groups map[string]map[string]string) uint64 {
	digest := xxhash.New()
	for _, group := range slices.Sorted(maps.Keys(groups)) {
		_, _ = digest.WriteString(group)
		_, _ = digest.Write([]byte{0})
		values := groups[group]
		for _, key := range slices.Sorted(maps.Keys(values)) {
			_, _ = digest.WriteString(key)
			_, _ = digest.Write([]byte{1})
			_, _ = digest.WriteString(values[key])
			_, _ = digest.Write([]byte{2})
		}
		_, _ = digest.Write([]byte{3})
	}
	return digest.Sum64()
}
