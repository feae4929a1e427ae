// Package source defines the remote key/value collaborator the refresh engine
// consumes, and a throttled fetch/activate implementation over any transport.
package source

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Blob is one immutable fetch result: remote key to raw value.
type Blob struct {
	values      map[string]string
	keys        []string
	fingerprint uint64
}

// NewBlob copies values into a Blob.
func NewBlob(values map[string]string) *Blob {
	cloned := maps.Clone(values)
	if cloned == nil {
		cloned = map[string]string{}
	}
	sortedKeys := slices.Sorted(maps.Keys(cloned))

	digest := xxhash.New()
	for _, k := range sortedKeys {
		_, _ = digest.WriteString(k)
		_, _ = digest.Write([]byte{0})
		_, _ = digest.WriteString(cloned[k])
		_, _ = digest.Write([]byte{1})
	}

	return &Blob{values: cloned, keys: sortedKeys, fingerprint: digest.Sum64()}
}

// Value returns the raw value of a remote key, or "" when absent.
func (b *Blob) Value(key string) string {
	if b == nil {
		return ""
	}
	return b.values[key]
}

// Keys lists remote keys starting with prefix, sorted ascending.
func (b *Blob) Keys(prefix string) []string {
	if b == nil {
		return nil
	}
	var matched []string
	for _, k := range b.keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched
}

// Len is the number of remote keys.
func (b *Blob) Len() int {
	if b == nil {
		return 0
	}
	return len(b.values)
}

// Fingerprint identifies the blob content.
func (b *Blob) Fingerprint() uint64 {
	if b == nil {
		return 0
	}
	return b.fingerprint
}

// ParseGroup decodes a remote group value into resource key/value pairs.
// Entries whose value is not a string are dropped, the remaining ones are kept.
func ParseGroup(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	var document map[string]any
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return map[string]string{}, fmt.Errorf("%w: %w", ErrMalformedBlob, err)
	}
	if document == nil {
		return map[string]string{}, fmt.Errorf("%w: document is null", ErrMalformedBlob)
	}

	values := make(map[string]string, len(document))
	for k, v := range document {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values, nil
}

// EncodeGroup serializes resource key/value pairs in the format ParseGroup reads.
func EncodeGroup(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
