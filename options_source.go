package telereso

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/pitabwire/util"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/telereso/data"
	"github.com/pitabwire/telereso/localization"
	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/source/bucket"
	"github.com/pitabwire/telereso/source/jetstream"
	"github.com/pitabwire/telereso/source/memory"
	"github.com/pitabwire/telereso/source/pubsub"
	redissource "github.com/pitabwire/telereso/source/redis"
	valkeysource "github.com/pitabwire/telereso/source/valkey"
	"github.com/pitabwire/telereso/telemetry"
	"github.com/pitabwire/telereso/workerpool"
)

// ErrUnsupportedSource is returned for a source URI no transport serves.
var ErrUnsupportedSource = errors.New("unsupported resource source")

type sourceSpec struct {
	uri  string
	name string
	key  string
}

type translationSpec struct {
	folder    string
	languages []string
}

// openFetcher routes a source URI to its transport. An empty URI is served
// from memory.
func openFetcher(ctx context.Context, spec sourceSpec) (source.Fetcher, error) {
	dsn := data.DSN(spec.uri)
	if spec.uri == "" {
		return memory.New(nil), nil
	}

	opts := []source.TransportOption{source.WithDSN(dsn)}
	if spec.name != "" {
		opts = append(opts, source.WithName(spec.name))
	}
	if spec.key != "" {
		opts = append(opts, source.WithKey(spec.key))
	}

	switch {
	case dsn.IsRedis():
		fetcher, err := redissource.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case dsn.IsValkey():
		fetcher, err := valkeysource.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case dsn.IsNats():
		fetcher, err := jetstream.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case dsn.IsBucket():
		fetcher, err := bucket.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, dsn.Scheme())
	}
}

// openNotifier prefers a dedicated change topic and otherwise uses the
// fetcher itself when its transport can watch for changes.
func (r *Resolver) openNotifier(ctx context.Context) source.Notifier {
	if r.changesURI != "" {
		notifier, err := pubsub.New(r.changesURI)
		if err != nil {
			r.AddStartupError(err)
			r.Log(ctx).WithError(err).Warn("could not use change topic")
		} else {
			return notifier
		}
	}

	if notifier, ok := r.fetcher.(source.Notifier); ok {
		return notifier
	}
	return nil
}

// WithFetcher serves remote values from a ready made transport.
func WithFetcher(fetcher source.Fetcher) Option {
	return func(_ context.Context, r *Resolver) {
		r.fetcher = fetcher
	}
}

// WithSourceURI picks the transport from a URI such as valkey://host:6379,
// nats://host:4222 or file:///srv/resources?key=resources.yaml.
func WithSourceURI(uri string) Option {
	return func(_ context.Context, r *Resolver) {
		r.source.uri = uri
	}
}

// WithSourceName sets the JetStream bucket, or the key namespace for Redis and Valkey.
func WithSourceName(name string) Option {
	return func(_ context.Context, r *Resolver) {
		r.source.name = name
	}
}

// WithNotifier delivers change signals that trigger a realtime refresh.
func WithNotifier(notifier source.Notifier) Option {
	return func(_ context.Context, r *Resolver) {
		r.notifier = notifier
	}
}

// WithChangesURI subscribes to a gocloud pubsub topic for change signals.
func WithChangesURI(uri string) Option {
	return func(_ context.Context, r *Resolver) {
		r.changesURI = uri
	}
}

// WithRemoteDefaults seeds the active remote content used before the first
// successful fetch.
func WithRemoteDefaults(values map[string]string) Option {
	return func(_ context.Context, r *Resolver) {
		r.remoteDefaults = maps.Clone(values)
	}
}

// WithLocalDefaults sets where missing strings are looked up locally.
func WithLocalDefaults(defaults localization.LocalDefaults) Option {
	return func(_ context.Context, r *Resolver) {
		r.defaults = defaults
	}
}

// WithTranslations loads local defaults from go-i18n message files.
func WithTranslations(folder string, languages ...string) Option {
	return func(_ context.Context, r *Resolver) {
		r.translations = translationSpec{folder: folder, languages: languages}
	}
}

// WithNotFoundHook is told about every resource that could not be resolved.
func WithNotFoundHook(hook telemetry.Hook) Option {
	return func(_ context.Context, r *Resolver) {
		if hook != nil {
			r.hooks = append(r.hooks, hook)
		}
	}
}

// WithMetrics records not found resources and refresh outcomes on provider.
func WithMetrics(provider metric.MeterProvider) Option {
	return func(_ context.Context, r *Resolver) {
		metrics, err := telemetry.NewMetrics(provider)
		if err != nil {
			r.AddStartupError(err)
			return
		}
		r.observer = metrics
		r.hooks = append(r.hooks, metrics)
	}
}

// WithWorkerPool runs refreshes on a pool the caller owns.
func WithWorkerPool(pool workerpool.WorkerPool) Option {
	return func(_ context.Context, r *Resolver) {
		r.pool = pool
		r.ownsPool = false
	}
}

// WithTracing traces refresh cycles on provider.
func WithTracing(provider trace.TracerProvider) Option {
	return func(_ context.Context, r *Resolver) {
		r.tracer = telemetry.NewTracer(provider)
	}
}

// WithTelemetryLogs sends resolver logs to an OpenTelemetry logger provider.
func WithTelemetryLogs(provider otellog.LoggerProvider) Option {
	return func(ctx context.Context, r *Resolver) {
		WithLogger(util.WithLogHandler(telemetry.LogHandler(provider)))(ctx, r)
	}
}
