package refresh

import (
	"maps"
	"slices"
	"strings"

	"github.com/pitabwire/util"

	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/snapshot"
	"github.com/pitabwire/telereso/source"
)

// Plan names the groups a snapshot is built with.
type Plan struct {
	// Locales are loaded into strings_<locale> groups; the first is the active one.
	Locales []string
	// Density selects the drawables_<density> group, none when empty.
	Density string
}

func (p Plan) normalized() Plan {
	seen := map[string]struct{}{}
	var locales []string
	for _, l := range p.Locales {
		n := keys.NormalizeLocale(l)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		locales = append(locales, n)
	}
	return Plan{Locales: locales, Density: strings.TrimSpace(p.Density)}
}

// Build turns the active remote blob into a snapshot holding the default
// groups, one group per planned locale and the planned density group.
func Build(log *util.LogEntry, blob *source.Blob, plan Plan) *snapshot.Snapshot {
	plan = plan.normalized()
	builder := snapshot.NewBuilder()

	builder.SetGroup(keys.DomainStrings, group(log, blob, keys.DomainStrings))
	index := newLocaleIndex(blob)
	for _, locale := range plan.Locales {
		builder.SetGroup(keys.StringGroupKey(locale), localeGroup(log, blob, index, locale))
	}

	builder.SetGroup(keys.DomainDrawables, group(log, blob, keys.DomainDrawables))
	if plan.Density != "" {
		densityKey := keys.DrawableGroupKey(plan.Density)
		builder.SetGroup(densityKey, group(log, blob, densityKey))
	}

	return builder.Build()
}

// group parses one remote value; absent or malformed values yield an empty group.
func group(log *util.LogEntry, blob *source.Blob, remoteKey string) map[string]string {
	values, err := source.ParseGroup(blob.Value(remoteKey))
	if err != nil {
		log.WithError(err).WithField("group", remoteKey).Warn("remote group is malformed, using an empty group")
	}
	return values
}

// localeIndex maps a normalized strings_<locale> key to the remote keys
// spelling it, so "strings_en_US" and "strings_en-us" both answer for "en_us".
type localeIndex map[string][]string

func newLocaleIndex(blob *source.Blob) localeIndex {
	prefix := keys.DomainStrings + keys.Separator
	index := localeIndex{}
	for _, remoteKey := range blob.Keys(prefix) {
		normalized := keys.StringGroupKey(keys.NormalizeLocale(strings.TrimPrefix(remoteKey, prefix)))
		index[normalized] = append(index[normalized], remoteKey)
	}
	return index
}

// first returns the first non-empty group among the spellings of a normalized key.
func (idx localeIndex) first(log *util.LogEntry, blob *source.Blob, normalizedKey string) map[string]string {
	for _, remoteKey := range idx[normalizedKey] {
		if values := group(log, blob, remoteKey); len(values) > 0 {
			return values
		}
	}
	return nil
}

// localeGroup reads strings_<locale>, retrying with the base locale's groups
// when that is empty. Remote keys are compared in normalized form and keys
// carrying the disabled marker are never picked.
func localeGroup(log *util.LogEntry, blob *source.Blob, index localeIndex, locale string) map[string]string {
	exactKey := keys.StringGroupKey(locale)
	if values := index.first(log, blob, exactKey); len(values) > 0 {
		return values
	}

	for _, candidate := range index.baseCandidates(keys.BaseLocale(locale)) {
		if candidate == exactKey {
			continue
		}
		if keys.IsDisabledKey(candidate) {
			log.WithField("group", candidate).Debug("locale group is turned off, skipping")
			continue
		}
		if values := index.first(log, blob, candidate); len(values) > 0 {
			log.WithField("locale", locale).WithField("group", candidate).Debug("using base locale group")
			return values
		}
	}

	return map[string]string{}
}

// baseCandidates lists the normalized strings_<base> and strings_<base>_*
// keys, the exact base key first and the rest in ascending order.
func (idx localeIndex) baseCandidates(base string) []string {
	baseKey := keys.StringGroupKey(base)

	var candidates []string
	for _, k := range slices.Sorted(maps.Keys(idx)) {
		if k == baseKey || strings.HasPrefix(k, baseKey+keys.Separator) {
			candidates = append(candidates, k)
		}
	}

	if i := slices.Index(candidates, baseKey); i > 0 {
		candidates = slices.Delete(candidates, i, i+1)
		candidates = slices.Insert(candidates, 0, baseKey)
	}
	return candidates
}
