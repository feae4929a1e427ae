package source

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrFetchFailed wraps every transport failure surfaced by Fetch.
	ErrFetchFailed = errors.New("remote fetch failed")
	// ErrMalformedBlob reports a group value that is not a string map document.
	ErrMalformedBlob = errors.New("remote value is not a valid resource group")
	// ErrNilBlob is returned when activating nothing.
	ErrNilBlob = errors.New("cannot activate a nil blob")
)

// DefaultMinimumFetchInterval matches the conservative default of hosted remote config services.
const DefaultMinimumFetchInterval = 12 * time.Hour

// Fetcher loads every resource group from a transport as raw key/value pairs.
// Values are the serialized group documents, keyed by group name.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Load(ctx context.Context) (map[string]string, error)
	Close() error
}

// Notifier signals that the remote content probably changed.
type Notifier interface {
	// Watch delivers a signal per change until ctx is done, then closes the channel.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Settings control how often the remote is actually contacted.
type Settings struct {
	// MinimumFetchInterval throttles Fetch; zero fetches every time.
	MinimumFetchInterval time.Duration
	// FetchTimeout bounds one Load call; zero means no extra deadline.
	FetchTimeout time.Duration
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{MinimumFetchInterval: DefaultMinimumFetchInterval, FetchTimeout: time.Minute}
}

// RealtimeSettings allow near immediate pickup of remote changes.
func RealtimeSettings() Settings {
	s := DefaultSettings()
	s.MinimumFetchInterval = 0
	return s
}

// Remote is the fetch/activate contract the refresh coordinator consumes.
type Remote interface {
	// Fetch retrieves the latest remote content without making it active.
	Fetch(ctx context.Context) (*Blob, error)
	// Activate makes blob the active content and reports whether it differs
	// from what was active before.
	Activate(ctx context.Context, blob *Blob) (bool, error)
	// Active is the content currently in use, never nil.
	Active() *Blob
	Settings() Settings
	SetSettings(settings Settings)
	Close() error
}
