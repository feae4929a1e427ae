package telereso

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/localization"
	"github.com/pitabwire/telereso/resolve"
	"github.com/pitabwire/telereso/snapshot"
)

// ResolveString returns key for the active locale, falling back to the
// default remote group and then to the local defaults. It returns "" when
// nothing is found. comment documents the string for translators and is
// only logged.
func (r *Resolver) ResolveString(ctx context.Context, key string, comment ...string) string {
	locale := r.currentSettings().locale
	value := r.resolveString(ctx, r.store.Current(), locale, locale, key, "")
	if len(comment) > 0 && r.logStrings() {
		r.Log(ctx).WithField("key", key).WithField("comment", comment[0]).Debug("string comment")
	}
	return value
}

// ResolveStringArgs resolves key and substitutes args into it. Args beyond
// what the value's placeholders consume are dropped.
func (r *Resolver) ResolveStringArgs(ctx context.Context, key string, args ...any) string {
	format := r.ResolveString(ctx, key)
	if format == "" || len(args) == 0 {
		return format
	}
	if n, ok := formatArgCount(format); ok && n < len(args) {
		args = args[:n]
	}
	return fmt.Sprintf(format, args...)
}

// formatArgCount reports how many operands format consumes. ok is false when
// format uses explicit argument indexes.
func formatArgCount(format string) (int, bool) {
	count := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			continue
		}
		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}
		i, count = skipWidth(format, i, count)
		if i < len(format) && format[i] == '.' {
			i, count = skipWidth(format, i+1, count)
		}
		if i >= len(format) {
			break
		}
		if format[i] == '[' {
			return 0, false
		}
		count++
	}
	return count, true
}

// skipWidth moves past a width or precision, counting a star as an operand.
func skipWidth(format string, i, count int) (int, int) {
	if i < len(format) && format[i] == '*' {
		return i + 1, count + 1
	}
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		i++
	}
	return i, count
}

// RemoteStringOrDefault resolves key for locale, which must be the active or
// a preloaded locale to have its own group. def is returned when the key is
// not found remotely; an empty def falls back to the local defaults.
func (r *Resolver) RemoteStringOrDefault(ctx context.Context, locale, key, def string) string {
	return r.resolveString(ctx, r.store.Current(), locale, locale, key, def)
}

// ResolveStringFor resolves key in the languages carried by ctx, see
// localization.ToContext, before the active locale.
func (r *Resolver) ResolveStringFor(ctx context.Context, key string) string {
	snap := r.store.Current()
	locale := r.currentSettings().locale
	requested := requestLocales(ctx)

	for _, candidate := range requested {
		result := resolve.String(snap, candidate, key)
		if result.Found && result.Group != keys.DomainStrings {
			r.logString(ctx, candidate, key, result)
			return result.Value
		}
	}

	hint := locale
	if len(requested) > 0 {
		hint = requested[0]
	}
	return r.resolveString(ctx, snap, locale, hint, key, "")
}

func (r *Resolver) resolveString(ctx context.Context, snap *snapshot.Snapshot, locale, hint, key, def string) string {
	result := resolve.String(snap, locale, key)
	r.logString(ctx, locale, key, result)
	if result.Found {
		return result.Value
	}

	if def == "" && r.defaults != nil {
		def = r.defaults.LocalizedDefault(ctx, key, hint)
	}
	if def != "" {
		return def
	}

	r.hooks.OnResourceNotFound(ctx, keys.DomainStrings, key)
	if r.currentSettings().logEnabled {
		r.Log(ctx).WithField("key", key).WithField("locale", locale).Warn("string resource not found")
	}
	return ""
}

func (r *Resolver) logString(ctx context.Context, locale, key string, result resolve.Result) {
	if !r.logStrings() {
		return
	}
	r.Log(ctx).
		WithField("key", key).
		WithField("locale", locale).
		WithField("group", result.Group).
		WithField("found", result.Found).
		WithField("tried", result.Tried).
		Info("string resolved")
}

// requestLocales lists the normalized request languages followed by their
// base languages, without repeats.
func requestLocales(ctx context.Context) []string {
	languages := localization.FromContext(ctx)
	if len(languages) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string
	add := func(locale string) {
		if locale == "" {
			return
		}
		if _, ok := seen[locale]; ok {
			return
		}
		seen[locale] = struct{}{}
		out = append(out, locale)
	}

	for _, lang := range languages {
		add(keys.NormalizeLocale(lang))
	}
	for _, lang := range languages {
		add(keys.BaseLocale(keys.NormalizeLocale(lang)))
	}
	return out
}
