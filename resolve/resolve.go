// Package resolve walks the fallback chain over a snapshot.
//
// Strings are looked up in the locale group first and then in the default
// "strings" group. Drawables are looked up in the density group first and then
// in the default "drawables" group. Nothing here keeps state between calls.
package resolve

import (
	"net/url"
	"strings"

	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/snapshot"
)

// remoteFormatToken is the placeholder remote values are authored with;
// localFormatToken is the fmt verb it is rewritten to.
const (
	remoteFormatToken = "%s"
	localFormatToken  = "%v"
)

// Result describes the outcome of one lookup.
type Result struct {
	Value string
	// Group is the snapshot group that produced Value, empty when not found.
	Group string
	Found bool
	// Tried lists the groups consulted, in order.
	Tried []string
}

// String resolves key for locale. Only the locale token is normalized, the
// key is matched exactly.
func String(snap *snapshot.Snapshot, locale, key string) Result {
	localeGroup := keys.StringGroupKey(keys.NormalizeLocale(locale))
	result := Result{Tried: []string{localeGroup, keys.DomainStrings}}

	for _, group := range result.Tried {
		value, ok := snap.Lookup(group, key)
		if !ok || value == "" {
			continue
		}
		result.Value = NormalizeFormat(value)
		result.Group = group
		result.Found = true
		return result
	}

	return result
}

// NormalizeFormat rewrites remote "%s" placeholders to the generic fmt verb so
// values can be passed straight to fmt.Sprintf with arguments of any type.
func NormalizeFormat(value string) string {
	if !strings.Contains(value, remoteFormatToken) {
		return value
	}
	return strings.ReplaceAll(value, remoteFormatToken, localFormatToken)
}

// DrawableResult is the outcome of a drawable lookup.
type DrawableResult struct {
	URL   *url.URL
	Group string
	Found bool
	Tried []string
}

// Drawable resolves key for the density suffix, skipping values that do not
// parse as a URL.
func Drawable(snap *snapshot.Snapshot, densitySuffix, key string) DrawableResult {
	result := DrawableResult{Tried: []string{keys.DrawableGroupKey(densitySuffix), keys.DomainDrawables}}

	for _, group := range result.Tried {
		value, ok := snap.Lookup(group, key)
		if !ok {
			continue
		}
		parsed, valid := ParseReference(value)
		if !valid {
			continue
		}
		result.URL = parsed
		result.Group = group
		result.Found = true
		return result
	}

	return result
}

// ParseReference parses a drawable value. Empty or unparsable values are invalid.
func ParseReference(value string) (*url.URL, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme == "" && parsed.Path == "" && parsed.Host == "" {
		return nil, false
	}
	return parsed, true
}
