package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitabwire/util"
)

// remote throttles a Fetcher and tracks the active blob.
type remote struct {
	fetcher Fetcher

	mu          sync.RWMutex
	settings    Settings
	active      *Blob
	lastFetched *Blob
	lastFetch   time.Time
	now         func() time.Time
}

// Option configures a Remote.
type Option func(*remote)

// WithSettings sets the initial fetch settings.
func WithSettings(settings Settings) Option {
	return func(r *remote) {
		r.settings = settings
	}
}

// WithDefaults seeds the active blob, used until the first activation.
func WithDefaults(values map[string]string) Option {
	return func(r *remote) {
		r.active = NewBlob(values)
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *remote) {
		r.now = now
	}
}

// NewRemote wraps fetcher with fetch throttling and activation tracking.
func NewRemote(fetcher Fetcher, opts ...Option) Remote {
	r := &remote{
		fetcher:  fetcher,
		settings: DefaultSettings(),
		active:   NewBlob(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch loads from the transport unless the last successful fetch is younger
// than the minimum fetch interval, in which case that result is returned again.
func (r *remote) Fetch(ctx context.Context) (*Blob, error) {
	r.mu.RLock()
	settings := r.settings
	cached := r.lastFetched
	age := r.now().Sub(r.lastFetch)
	r.mu.RUnlock()

	if cached != nil && settings.MinimumFetchInterval > 0 && age < settings.MinimumFetchInterval {
		util.Log(ctx).WithField("age", age.String()).Debug("remote fetch throttled, reusing last result")
		return cached, nil
	}

	if settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.FetchTimeout)
		defer cancel()
	}

	values, err := r.fetcher.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	blob := NewBlob(values)

	r.mu.Lock()
	r.lastFetched = blob
	r.lastFetch = r.now()
	r.mu.Unlock()

	return blob, nil
}

func (r *remote) Activate(_ context.Context, blob *Blob) (bool, error) {
	if blob == nil {
		return false, ErrNilBlob
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	changed := r.active.Fingerprint() != blob.Fingerprint()
	r.active = blob
	return changed, nil
}

func (r *remote) Active() *Blob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *remote) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

func (r *remote) SetSettings(settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
}

func (r *remote) Close() error {
	return r.fetcher.Close()
}
