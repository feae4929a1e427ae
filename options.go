package telereso

import (
	"context"
	"log/slog"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/telereso/config"
	"github.com/pitabwire/telereso/keys"
	"github.com/pitabwire/telereso/source"
)

// WithConfig Option that helps to specify or override the configuration object of the resolver.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, r *Resolver) {
		r.configuration = cfg

		WithLogger()(ctx, r)

		if resCfg, ok := cfg.(config.ConfigurationResources); ok {
			r.updateSettings(func(next *settings) {
				next.logEnabled = resCfg.ResourceLogs()
				next.stringLog = resCfg.StringLogs()
				next.drawableLog = resCfg.DrawableLogs()
			})
		}

		if refreshCfg, ok := cfg.(config.ConfigurationRefresh); ok {
			r.updateSettings(func(next *settings) {
				next.locale = refreshCfg.ActiveLocale()
				next.preload = refreshCfg.PreloadedLocales()
				next.density = keys.DensitySuffix(refreshCfg.DisplayScale())
				next.realtime = refreshCfg.IsRealtime()
				next.waitForFetch = refreshCfg.IsWaitForFetch()
				next.realtimeInterval = refreshCfg.GetRealtimeInterval()
				next.fetch = source.Settings{
					MinimumFetchInterval: refreshCfg.GetMinimumFetchInterval(),
					FetchTimeout:         refreshCfg.GetFetchTimeout(),
				}
			})
		}

		if srcCfg, ok := cfg.(config.ConfigurationSource); ok {
			r.source = sourceSpec{
				uri:  srcCfg.GetSourceURI(),
				name: srcCfg.GetSourceName(),
				key:  srcCfg.GetSourceKey(),
			}
			r.changesURI = srcCfg.GetChangesURI()
		}

		if locCfg, ok := cfg.(config.ConfigurationLocalization); ok {
			r.translations = translationSpec{
				folder:    locCfg.GetTranslationsFolder(),
				languages: locCfg.GetTranslationsLanguages(),
			}
		}
	}
}

// WithLogger Option that helps with initialization of the resolver logger.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, r *Resolver) {
		if r.Config() != nil {
			cfg, ok := r.Config().(config.ConfigurationLogLevel)
			if ok {
				logLevel, err := util.ParseLevel(cfg.LoggingLevel())
				if err == nil {
					opts = append(opts, util.WithLogLevel(logLevel))
				}
				opts = append(opts,
					util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
					util.WithLogNoColor(!cfg.LoggingColored()))
				if cfg.LoggingShowStackTrace() {
					opts = append(opts, util.WithLogStackTrace())
				}
			}
		}

		r.logger = util.NewLogger(ctx, opts...).WithField("component", "telereso")
	}
}

// SLog exposes the resolver logger as a *slog.Logger.
func (r *Resolver) SLog(ctx context.Context) *slog.Logger {
	return r.Log(ctx).SLog()
}

// WithLocale sets the active locale used until Initialize names another.
func WithLocale(locale string) Option {
	return func(_ context.Context, r *Resolver) {
		r.updateSettings(func(next *settings) {
			next.locale = locale
		})
	}
}

// WithPreloadLocales builds string groups for more locales than the active one,
// so ResolveStringFor and RemoteStringOrDefault can serve them.
func WithPreloadLocales(locales ...string) Option {
	return func(_ context.Context, r *Resolver) {
		r.updateSettings(func(next *settings) {
			next.preload = append(next.preload, locales...)
		})
	}
}

// WithDensityScale selects the drawable group from the display scale factor.
func WithDensityScale(scale float64) Option {
	return func(_ context.Context, r *Resolver) {
		r.updateSettings(func(next *settings) {
			next.density = keys.DensitySuffix(scale)
		})
	}
}

// WithRealtimeInterval sets how often realtime mode polls the source.
func WithRealtimeInterval(interval time.Duration) Option {
	return func(_ context.Context, r *Resolver) {
		if interval <= 0 {
			return
		}
		r.updateSettings(func(next *settings) {
			next.realtimeInterval = interval
		})
	}
}
