package telereso

import (
	"context"
	"slices"
	"time"

	"github.com/pitabwire/telereso/config"
	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/refresh"
	"github.com/pitabwire/telereso/source"
)

// settings is replaced as a whole on every change so readers never see a
// partially applied update.
type settings struct {
	logEnabled  bool
	stringLog   bool
	drawableLog bool

	realtime         bool
	realtimeInterval time.Duration
	waitForFetch     bool

	fetch       source.Settings
	customFetch bool

	locale  string
	preload []string
	density string
}

func defaultSettings() *settings {
	return &settings{
		logEnabled:       true,
		realtimeInterval: refresh.DefaultInterval,
		fetch:            source.DefaultSettings(),
		density:          keys.DensitySuffix(1),
		locale:           config.DefaultLocale,
	}
}

func (s *settings) clone() *settings {
	next := *s
	next.preload = slices.Clone(s.preload)
	return &next
}

// effectiveFetchSettings drops fetch throttling in realtime mode unless the
// caller chose the fetch settings explicitly.
func (s *settings) effectiveFetchSettings() source.Settings {
	if s.realtime && !s.customFetch {
		fetch := s.fetch
		fetch.MinimumFetchInterval = 0
		return fetch
	}
	return s.fetch
}

func (s *settings) plan() refresh.Plan {
	locales := make([]string, 0, len(s.preload)+1)
	if s.locale != "" {
		locales = append(locales, s.locale)
	}
	locales = append(locales, s.preload...)
	return refresh.Plan{Locales: locales, Density: s.density}
}

func (r *Resolver) currentSettings() *settings {
	return r.settings.Load()
}

func (r *Resolver) updateSettings(change func(next *settings)) *settings {
	r.settingsMu.Lock()
	defer r.settingsMu.Unlock()

	next := r.currentSettings().clone()
	change(next)
	r.settings.Store(next)
	return next
}

// configure applies a builder change unless the resolver is already initialized.
func (r *Resolver) configure(ctx context.Context, name string, change func(next *settings)) *Resolver {
	if r.initialized.Load() {
		r.Log(ctx).WithField("setting", name).Warn("resolver is already initialized, setting ignored")
		return r
	}
	r.updateSettings(change)
	return r
}

// EnableStringLog logs every string resolution.
func (r *Resolver) EnableStringLog(ctx context.Context) *Resolver {
	return r.configure(ctx, "string_log", func(next *settings) {
		next.stringLog = true
	})
}

// EnableDrawableLog logs every drawable resolution.
func (r *Resolver) EnableDrawableLog(ctx context.Context) *Resolver {
	return r.configure(ctx, "drawable_log", func(next *settings) {
		next.drawableLog = true
	})
}

// DisableLog silences every resolver log, string and drawable logs included.
func (r *Resolver) DisableLog(ctx context.Context) *Resolver {
	return r.configure(ctx, "log", func(next *settings) {
		next.logEnabled = false
	})
}

// EnableRealtimeChanges keeps refreshing after initialization, on every
// realtime interval and on every change notification.
func (r *Resolver) EnableRealtimeChanges(ctx context.Context) *Resolver {
	return r.configure(ctx, "realtime", func(next *settings) {
		next.realtime = true
	})
}

// SetFetchSettings replaces the remote fetch settings. They are kept as given
// even in realtime mode.
func (r *Resolver) SetFetchSettings(ctx context.Context, fetch source.Settings) *Resolver {
	return r.configure(ctx, "fetch_settings", func(next *settings) {
		next.fetch = fetch
		next.customFetch = true
	})
}

// ActiveLocale is the normalized locale strings resolve against.
func (r *Resolver) ActiveLocale() string {
	return keys.NormalizeLocale(r.currentSettings().locale)
}

// Density is the drawable density suffix, such as "2x".
func (r *Resolver) Density() string {
	return r.currentSettings().density
}

func (r *Resolver) logStrings() bool {
	st := r.currentSettings()
	return st.logEnabled && st.stringLog
}

func (r *Resolver) logDrawables() bool {
	st := r.currentSettings()
	return st.logEnabled && st.drawableLog
}
