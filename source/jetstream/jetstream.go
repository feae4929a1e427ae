package jetstream

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/pitabwire/telereso/source"
)

const defaultBucket = "telereso"

// Fetcher reads resource groups from a NATS JetStream KeyValue bucket and
// watches it for changes.
type Fetcher struct {
	conn   *nats.Conn
	client nats.KeyValue
	opts   *source.TransportOptions
}

var (
	_ source.Fetcher  = (*Fetcher)(nil)
	_ source.Notifier = (*Fetcher)(nil)
)

// New connects to NATS and opens, creating if needed, the KeyValue bucket named by the options.
func New(_ context.Context, opts ...source.TransportOption) (*Fetcher, error) {
	transportOpts := source.ApplyTransportOptions(opts...)
	if transportOpts.Name == "" {
		transportOpts.Name = defaultBucket
	}

	natsConn, err := nats.Connect(transportOpts.DSN.String())
	if err != nil {
		return nil, err
	}

	js, err := natsConn.JetStream()
	if err != nil {
		natsConn.Close()
		return nil, err
	}

	client, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: transportOpts.Name})
	if err != nil {
		var apiErr *nats.APIError
		if !errors.As(err, &apiErr) || apiErr.ErrorCode != nats.JSErrCodeStreamNameInUse {
			natsConn.Close()
			return nil, err
		}

		// The bucket already exists, just get a handle to it.
		client, err = js.KeyValue(transportOpts.Name)
		if err != nil {
			natsConn.Close()
			return nil, err
		}
	}

	if _, err = client.Status(); err != nil {
		natsConn.Close()
		return nil, err
	}

	return &Fetcher{
		conn:   natsConn,
		client: client,
		opts:   transportOpts,
	}, nil
}

// Load reads every key in the bucket that matches the configured prefixes.
func (f *Fetcher) Load(ctx context.Context) (map[string]string, error) {
	remoteKeys, err := f.client.Keys(nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	values := make(map[string]string, len(remoteKeys))
	for _, key := range remoteKeys {
		if !f.opts.Matches(key) {
			continue
		}

		entry, getErr := f.client.Get(key)
		if getErr != nil {
			if errors.Is(getErr, nats.ErrKeyNotFound) {
				continue
			}
			return nil, getErr
		}
		values[key] = string(entry.Value())
	}

	return values, nil
}

// Watch signals on every put or delete in the bucket after the call.
func (f *Fetcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := f.client.WatchAll(nats.UpdatesOnly(), nats.Context(ctx))
	if err != nil {
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer func() { _ = watcher.Stop() }()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil || !f.opts.Matches(entry.Key()) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return changes, nil
}

// Set publishes a raw remote value.
func (f *Fetcher) Set(_ context.Context, key, value string) error {
	_, err := f.client.Put(key, []byte(value))
	return err
}

// Delete removes a remote key.
func (f *Fetcher) Delete(_ context.Context, key string) error {
	return f.client.Delete(key)
}

// Close closes the NATS connection.
func (f *Fetcher) Close() error {
	f.conn.Close()
	return nil
}
