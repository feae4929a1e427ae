// Package memory is an in-process resource transport, useful for embedding
// defaults and for tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/pitabwire/telereso/source"
)

// Fetcher keeps remote values in memory and notifies watchers on every change.
type Fetcher struct {
	mu       sync.RWMutex
	values   map[string]string
	failWith error
	loads    atomic.Int64

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}
}

var (
	_ source.Fetcher  = (*Fetcher)(nil)
	_ source.Notifier = (*Fetcher)(nil)
)

// New creates a Fetcher seeded with raw remote values.
func New(values map[string]string) *Fetcher {
	seeded := maps.Clone(values)
	if seeded == nil {
		seeded = map[string]string{}
	}
	return &Fetcher{
		values:   seeded,
		watchers: map[chan struct{}]struct{}{},
	}
}

// Load returns a copy of the current values, or the configured failure.
func (f *Fetcher) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.loads.Add(1)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.failWith != nil {
		return nil, f.failWith
	}
	return maps.Clone(f.values), nil
}

// Set stores a raw remote value.
func (f *Fetcher) Set(key, value string) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
	f.notify()
}

// SetGroup stores a resource group encoded the way remote groups are published.
func (f *Fetcher) SetGroup(group string, values map[string]string) error {
	encoded, err := source.EncodeGroup(values)
	if err != nil {
		return err
	}
	f.Set(group, encoded)
	return nil
}

// Delete removes a remote key.
func (f *Fetcher) Delete(key string) {
	f.mu.Lock()
	delete(f.values, key)
	f.mu.Unlock()
	f.notify()
}

// FailWith makes every Load return err until called again with nil.
func (f *Fetcher) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

// Loads counts the Load calls made so far.
func (f *Fetcher) Loads() int {
	return int(f.loads.Load())
}

// Watch signals after each Set or Delete. Signals are dropped while a previous
// one is still pending, so a slow reader sees one signal per burst.
func (f *Fetcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	f.watchMu.Lock()
	f.watchers[ch] = struct{}{}
	f.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		f.watchMu.Lock()
		delete(f.watchers, ch)
		close(ch)
		f.watchMu.Unlock()
	}()

	return ch, nil
}

func (f *Fetcher) notify() {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	for ch := range f.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *Fetcher) Close() error {
	return nil
}
