package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitabwire/telereso/source"
)

// Fetcher reads resource groups stored as plain string keys in Redis.
type Fetcher struct {
	client    *redis.Client
	namespace string
	prefixes  []string
}

var _ source.Fetcher = (*Fetcher)(nil)

const (
	connectionTimeout = 5 * time.Second
	scanBatchSize     = 100
)

// New connects to the Redis server addressed by the redis:// or rediss:// DSN.
func New(ctx context.Context, opts ...source.TransportOption) (*Fetcher, error) {
	transportOpts := source.ApplyTransportOptions(opts...)

	redisOpts, err := redis.ParseURL(transportOpts.DSN.String())
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, pingErr
	}

	return &Fetcher{
		client:    client,
		namespace: transportOpts.Name,
		prefixes:  transportOpts.Prefixes,
	}, nil
}

// Load scans every configured prefix and reads the matching values in one MGET.
func (f *Fetcher) Load(ctx context.Context) (map[string]string, error) {
	var remoteKeys []string
	seen := map[string]struct{}{}

	for _, prefix := range f.prefixes {
		iter := f.client.Scan(ctx, 0, source.KeyPattern(f.namespace, prefix), scanBatchSize).Iterator()
		for iter.Next(ctx) {
			k := iter.Val()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			remoteKeys = append(remoteKeys, k)
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
	}

	values := make(map[string]string, len(remoteKeys))
	if len(remoteKeys) == 0 {
		return values, nil
	}

	results, err := f.client.MGet(ctx, remoteKeys...).Result()
	if err != nil {
		return nil, err
	}

	for i, result := range results {
		value, ok := result.(string)
		if !ok {
			continue
		}
		values[strings.TrimPrefix(remoteKeys[i], f.namespace)] = value
	}

	return values, nil
}

// Set publishes a raw remote value under the namespace.
func (f *Fetcher) Set(ctx context.Context, key, value string) error {
	return f.client.Set(ctx, f.namespace+key, value, 0).Err()
}

// Delete removes a remote key.
func (f *Fetcher) Delete(ctx context.Context, key string) error {
	return f.client.Del(ctx, f.namespace+key).Err()
}

// Close closes the Redis connection.
func (f *Fetcher) Close() error {
	return f.client.Close()
}
