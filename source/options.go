package source

import (
	"strings"

	"github.com/pitabwire/telereso/data"
	"github.com/pitabwire/telereso/keys"
)

// TransportOption configures a transport connection.
type TransportOption func(*TransportOptions)

// TransportOptions holds transport connection configuration.
type TransportOptions struct {
	DSN data.DSN
	// Name is the bucket name for JetStream, or a key namespace for Redis and Valkey.
	Name string
	// Key is the object key of the resource document in a blob bucket.
	Key string
	// Prefixes restricts which remote keys are loaded.
	Prefixes []string
}

// DefaultTransportOptions loads every strings and drawables group.
func DefaultTransportOptions() *TransportOptions {
	return &TransportOptions{
		Prefixes: []string{keys.DomainStrings, keys.DomainDrawables},
	}
}

// ApplyTransportOptions builds TransportOptions from defaults and opts.
func ApplyTransportOptions(opts ...TransportOption) *TransportOptions {
	o := DefaultTransportOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithDSN(dsn data.DSN) TransportOption {
	return func(o *TransportOptions) {
		o.DSN = dsn
	}
}

func WithName(name string) TransportOption {
	return func(o *TransportOptions) {
		o.Name = name
	}
}

func WithKey(key string) TransportOption {
	return func(o *TransportOptions) {
		o.Key = key
	}
}

// WithPrefixes replaces the key prefixes a transport loads.
func WithPrefixes(prefixes ...string) TransportOption {
	return func(o *TransportOptions) {
		o.Prefixes = prefixes
	}
}

// Matches reports whether a remote key falls under one of the prefixes.
func (o *TransportOptions) Matches(key string) bool {
	if len(o.Prefixes) == 0 {
		return true
	}
	for _, prefix := range o.Prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// KeyPattern is a SCAN MATCH pattern for every key starting with
// namespace+prefix. Glob metacharacters in either part match literally.
func KeyPattern(namespace, prefix string) string {
	return globEscaper.Replace(namespace+prefix) + "*"
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)
