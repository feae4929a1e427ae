package valkey

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/telereso/data"
	"github.com/pitabwire/telereso/source"
)

// Fetcher reads resource groups stored as plain string keys in Valkey.
// With a namespace, remote keys are stored as "<namespace><group>".
type Fetcher struct {
	client valkey.Client
	opts   *source.TransportOptions
}

var _ source.Fetcher = (*Fetcher)(nil)

const (
	connectionTimeout = 5 * time.Second
	scanBatchSize     = 100
)

// New connects to Valkey. Both valkey:// and redis:// DSNs are accepted.
func New(ctx context.Context, opts ...source.TransportOption) (*Fetcher, error) {
	transportOpts := source.ApplyTransportOptions(opts...)

	dsn := transportOpts.DSN
	if dsn.IsValkey() {
		scheme := data.RedisScheme
		if dsn.Scheme() == data.ValkeysScheme {
			scheme = data.RedissScheme
		}
		swapped, err := dsn.WithScheme(scheme)
		if err != nil {
			return nil, err
		}
		dsn = swapped
	}

	valkeyOpts, err := valkey.ParseURL(dsn.String())
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Do(pingCtx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, pingErr
	}

	return &Fetcher{
		client: client,
		opts:   transportOpts,
	}, nil
}

// Load scans every configured prefix and reads the matching values in one MGET.
func (f *Fetcher) Load(ctx context.Context) (map[string]string, error) {
	var remoteKeys []string
	seen := map[string]struct{}{}

	for _, prefix := range f.opts.Prefixes {
		pattern := source.KeyPattern(f.opts.Name, prefix)
		var cursor uint64
		for {
			cmd := f.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanBatchSize).Build()
			entry, err := f.client.Do(ctx, cmd).AsScanEntry()
			if err != nil {
				return nil, err
			}
			for _, k := range entry.Elements {
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				remoteKeys = append(remoteKeys, k)
			}
			cursor = entry.Cursor
			if cursor == 0 {
				break
			}
		}
	}

	values := make(map[string]string, len(remoteKeys))
	if len(remoteKeys) == 0 {
		return values, nil
	}

	messages, err := f.client.Do(ctx, f.client.B().Mget().Key(remoteKeys...).Build()).ToArray()
	if err != nil {
		return nil, err
	}

	for i, msg := range messages {
		value, valueErr := msg.ToString()
		if valueErr != nil {
			if valkey.IsValkeyNil(valueErr) {
				continue
			}
			return nil, valueErr
		}
		values[strings.TrimPrefix(remoteKeys[i], f.opts.Name)] = value
	}

	return values, nil
}

// Set publishes a raw remote value under the namespace.
func (f *Fetcher) Set(ctx context.Context, key, value string) error {
	cmd := f.client.B().Set().Key(f.opts.Name + key).Value(value).Build()
	return f.client.Do(ctx, cmd).Error()
}

// Delete removes a remote key.
func (f *Fetcher) Delete(ctx context.Context, key string) error {
	cmd := f.client.B().Del().Key(f.opts.Name + key).Build()
	return f.client.Do(ctx, cmd).Error()
}

// Close closes the Valkey connection.
func (f *Fetcher) Close() error {
	f.client.Close()
	return nil
}
