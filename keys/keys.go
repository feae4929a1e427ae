// Package keys derives the canonical group keys used to index a snapshot.
//
// Every function here is pure: the same input always yields the same key and
// no package state is consulted.
package keys

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DomainStrings is the group prefix for localized text.
	DomainStrings = "strings"
	// DomainDrawables is the group prefix for image references.
	DomainDrawables = "drawables"

	// DisabledMarker is the reserved key segment that switches a remote group off.
	DisabledMarker = "off"

	// Separator joins the segments of group keys and locales.
	Separator = "_"
)

// NormalizeLocale lower-cases a locale and converts its separators to underscores,
// so "en-US", "en_US" and "EN.us" all become "en_us".
func NormalizeLocale(in string) string {
	normalized := strings.ToLower(strings.TrimSpace(in))
	return strings.NewReplacer("-", Separator, ".", Separator).Replace(normalized)
}

// BaseLocale returns the primary language subtag of a normalized locale.
// A locale without a separator is returned unchanged.
func BaseLocale(normalizedLocale string) string {
	base, _, found := strings.Cut(normalizedLocale, Separator)
	if !found {
		return normalizedLocale
	}
	return base
}

// StringGroupKey is the snapshot group holding strings for locale.
func StringGroupKey(locale string) string {
	return DomainStrings + Separator + locale
}

// DrawableGroupKey is the snapshot group holding drawables for a density suffix.
func DrawableGroupKey(densitySuffix string) string {
	return DomainDrawables + Separator + densitySuffix
}

// DensitySuffix encodes a display scale factor as the "<n>x" group suffix.
// Fractional scales are truncated and anything below one maps to "1x".
func DensitySuffix(scale float64) string {
	whole := int(math.Trunc(scale))
	if whole < 1 || math.IsNaN(scale) {
		whole = 1
	}
	return strconv.Itoa(whole) + "x"
}

// IsDisabledKey reports whether a remote key carries the disabled marker as
// one of its underscore separated segments, e.g. "strings_fr_off".
func IsDisabledKey(candidateKey string) bool {
	for _, segment := range strings.Split(candidateKey, Separator) {
		if segment == DisabledMarker {
			return true
		}
	}
	return false
}
