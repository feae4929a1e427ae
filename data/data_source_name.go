package data

import (
	"net/url"
	"strings"
)

// Schemes understood when routing a source DSN to a transport.
const (
	RedisScheme   = "redis"
	RedissScheme  = "rediss"
	ValkeyScheme  = "valkey"
	ValkeysScheme = "valkeys"
	NatsScheme    = "nats"
	MemScheme     = "mem"
	FileScheme    = "file"
	S3Scheme      = "s3"
	GCSScheme     = "gs"
	AzureScheme   = "azblob"
)

// A DSN for conveniently handling a URI connection string.
type DSN string

func (d DSN) ToURI() (*url.URL, error) {
	return url.Parse(strings.TrimSpace(string(d)))
}

// Scheme is the lower-cased URI scheme, or "" when the DSN does not parse.
func (d DSN) Scheme() string {
	u, err := d.ToURI()
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func (d DSN) IsRedis() bool {
	s := d.Scheme()
	return s == RedisScheme || s == RedissScheme
}

func (d DSN) IsValkey() bool {
	s := d.Scheme()
	return s == ValkeyScheme || s == ValkeysScheme
}

func (d DSN) IsNats() bool {
	return d.Scheme() == NatsScheme
}

func (d DSN) IsMem() bool {
	return d.Scheme() == MemScheme
}

// IsBucket reports whether the DSN addresses a blob bucket holding a resource document.
func (d DSN) IsBucket() bool {
	switch d.Scheme() {
	case MemScheme, FileScheme, S3Scheme, GCSScheme, AzureScheme:
		return true
	default:
		return false
	}
}

func (d DSN) IsKeyValue() bool {
	return d.IsRedis() || d.IsValkey() || d.IsNats()
}

// Valid reports whether the DSN names a scheme a transport can serve.
func (d DSN) Valid() bool {
	return d.IsKeyValue() || d.IsBucket()
}

// WithScheme swaps the scheme, keeping everything else.
func (d DSN) WithScheme(scheme string) (DSN, error) {
	u, err := d.ToURI()
	if err != nil {
		return "", err
	}
	u.Scheme = scheme
	return DSN(u.String()), nil
}

func (d DSN) ExtendQuery(key, value string) DSN {
	nuURI, err := d.ToURI()
	if err != nil {
		return d
	}

	q := nuURI.Query()
	q.Set(key, value)

	nuURI.RawQuery = q.Encode()

	return DSN(nuURI.String())
}

func (d DSN) RemoveQuery(key ...string) DSN {
	nuURI, err := d.ToURI()
	if err != nil {
		return d
	}

	q := nuURI.Query()

	for _, k := range key {
		q.Del(k)
	}

	nuURI.RawQuery = q.Encode()

	return DSN(nuURI.String())
}

func (d DSN) GetQuery(key string) string {
	nuURI, err := d.ToURI()
	if err != nil {
		return ""
	}

	return nuURI.Query().Get(key)
}

func (d DSN) String() string {
	return string(d)
}
