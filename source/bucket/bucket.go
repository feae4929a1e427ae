// Package bucket loads every resource group from a single document held in a
// gocloud blob bucket. The document maps group keys such as "strings_fr" to
// either a raw group string or a nested key/value object.
package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver registration
	_ "gocloud.dev/blob/memblob"  // mem:// driver registration
	"gocloud.dev/gcerrors"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/telereso/source"
)

const (
	// DefaultKey is the object read when neither the options nor the DSN name one.
	DefaultKey = "resources.json"
	keyQuery   = "key"
)

// ErrUnsupportedFormat is returned for documents whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported resource document format")

// Fetcher reads the resource document from a blob bucket.
type Fetcher struct {
	bucket *blob.Bucket
	key    string
	opts   *source.TransportOptions
}

var _ source.Fetcher = (*Fetcher)(nil)

// New opens the bucket addressed by the DSN. The object key is taken from
// WithKey, then the "key" query parameter, then DefaultKey.
func New(ctx context.Context, opts ...source.TransportOption) (*Fetcher, error) {
	transportOpts := source.ApplyTransportOptions(opts...)

	dsn := transportOpts.DSN
	key := transportOpts.Key
	if queryKey := dsn.GetQuery(keyQuery); queryKey != "" {
		dsn = dsn.RemoveQuery(keyQuery)
		if key == "" {
			key = queryKey
		}
	}
	if key == "" {
		key = DefaultKey
	}

	if _, err := decoderFor(key); err != nil {
		return nil, err
	}

	bucket, err := blob.OpenBucket(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("could not open resource bucket: %w", err)
	}

	return &Fetcher{
		bucket: bucket,
		key:    key,
		opts:   transportOpts,
	}, nil
}

// Load reads and decodes the document. A missing document is an empty blob.
func (f *Fetcher) Load(ctx context.Context) (map[string]string, error) {
	raw, err := f.bucket.ReadAll(ctx, f.key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return map[string]string{}, nil
		}
		return nil, err
	}

	decode, err := decoderFor(f.key)
	if err != nil {
		return nil, err
	}

	document := map[string]any{}
	if err = decode(raw, &document); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrMalformedBlob, err)
	}

	values := make(map[string]string, len(document))
	for group, value := range document {
		if !f.opts.Matches(group) {
			continue
		}

		switch v := value.(type) {
		case string:
			values[group] = v
		case map[string]any:
			encoded, encodeErr := source.EncodeGroup(stringLeaves(v))
			if encodeErr != nil {
				return nil, encodeErr
			}
			values[group] = encoded
		}
	}

	return values, nil
}

// Put writes the document, encoded to match the object key extension.
func (f *Fetcher) Put(ctx context.Context, document map[string]map[string]string) error {
	var (
		raw []byte
		err error
	)

	switch extension(f.key) {
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(document)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(document)
		raw = buf.Bytes()
	default:
		raw, err = json.Marshal(document)
	}
	if err != nil {
		return err
	}

	return f.bucket.WriteAll(ctx, f.key, raw, nil)
}

// Close releases the bucket.
func (f *Fetcher) Close() error {
	return f.bucket.Close()
}

type decoder func([]byte, any) error

func decoderFor(key string) (decoder, error) {
	switch extension(key) {
	case ".json":
		return json.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".toml":
		return toml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, key)
	}
}

func extension(key string) string {
	return strings.ToLower(path.Ext(key))
}

// stringLeaves drops non-string values the same way ParseGroup does.
func stringLeaves(group map[string]any) map[string]string {
	out := make(map[string]string, len(group))
	for k, v := range group {
		if str, ok := v.(string); ok {
			out[k] = str
		}
	}
	return out
}
