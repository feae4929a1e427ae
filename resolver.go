// Package telereso resolves localized strings and density-specific image
// references from a remote key/value source, falling back from the active
// locale to the global default group and finally to bundled defaults.
package telereso

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pitabwire/util"

	"github.com/pitabwire/telereso/config"
	"github.com/pitabwire/telereso/localization"
	"github.com/pitabwire/telereso/refresh"
	"github.com/pitabwire/telereso/snapshot"
	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/telemetry"
	"github.com/pitabwire/telereso/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "telereso/" + string(c)
}

const ctxKeyResolver = contextKey("resolverKey")

// Resolver holds together the snapshot store, the remote source and the
// refresh coordinator of one resource set. Every resolution is a lock free
// read of the published snapshot.
type Resolver struct {
	logger        *util.LogEntry
	configuration any

	settingsMu  sync.Mutex
	settings    atomic.Pointer[settings]
	initialized atomic.Bool

	store       *snapshot.Store
	fetcher     source.Fetcher
	remote      source.Remote
	coordinator *refresh.Coordinator
	notifier    source.Notifier
	defaults    localization.LocalDefaults
	hooks       telemetry.Hooks
	observer    telemetry.RefreshObserver
	tracer      *telemetry.Tracer

	pool     workerpool.WorkerPool
	ownsPool bool

	source         sourceSpec
	changesURI     string
	translations   translationSpec
	remoteDefaults map[string]string

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	runWG      sync.WaitGroup
	closeOnce  sync.Once

	startupErrMu  sync.Mutex
	startupErrors []error
}

// Option configures a Resolver while it is being created.
type Option func(ctx context.Context, r *Resolver)

// NewResolver creates a Resolver configured from the environment and then
// from opts. Setup failures do not abort creation, they are collected in
// StartupErrors and the resolver falls back to an in-process source.
func NewResolver(ctx context.Context, opts ...Option) (context.Context, *Resolver) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	r := &Resolver{
		logger: defaultLogger,
		store:  snapshot.NewStore(),
	}
	r.settings.Store(defaultSettings())

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		r.AddStartupError(err)
	}

	opts = append([]Option{WithConfig(&defaultCfg)}, opts...)
	for _, opt := range opts {
		opt(ctx, r)
	}

	r.setup(ctx)

	ctx = ToContext(ctx, r)
	ctx = config.ToContext(ctx, r.Config())
	ctx = util.ContextWithLogger(ctx, r.logger)
	return ctx, r
}

// ToContext pushes a resolver into the supplied context.
func ToContext(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, ctxKeyResolver, r)
}

// FromContext obtains the resolver propagated through the context.
func FromContext(ctx context.Context) *Resolver {
	r, ok := ctx.Value(ctxKeyResolver).(*Resolver)
	if !ok {
		return nil
	}
	return r
}

func (r *Resolver) setup(ctx context.Context) {
	log := r.Log(ctx)

	if r.fetcher == nil {
		fetcher, err := openFetcher(ctx, r.source)
		if err != nil {
			r.AddStartupError(err)
			log.WithError(err).WithField("source", r.source.uri).Error("could not open resource source, using an empty in-process source")
			fetcher, _ = openFetcher(ctx, sourceSpec{})
		}
		r.fetcher = fetcher
	}

	if r.notifier == nil {
		r.notifier = r.openNotifier(ctx)
	}

	if r.defaults == nil && r.translations.folder != "" {
		manager, err := localization.NewManager(r.translations.folder, r.translations.languages...)
		if err != nil {
			r.AddStartupError(err)
			log.WithError(err).Warn("could not load bundled default strings")
		} else {
			r.defaults = manager
		}
	}

	if r.pool == nil {
		cfg, _ := r.Config().(config.ConfigurationWorkerPool)
		pool, err := workerpool.New(ctx, cfg)
		if err != nil {
			r.AddStartupError(err)
			log.WithError(err).Warn("could not create worker pool, refreshing on goroutines")
		} else {
			r.pool = pool
			r.ownsPool = true
		}
	}

	if r.observer == nil {
		if metrics, err := telemetry.NewMetrics(nil); err == nil {
			r.observer = metrics
			r.hooks = append(r.hooks, metrics)
		}
	}

	st := r.currentSettings()
	r.remote = source.NewRemote(r.fetcher,
		source.WithSettings(st.effectiveFetchSettings()),
		source.WithDefaults(r.remoteDefaults),
	)

	coordinatorOpts := []refresh.Option{
		refresh.WithPlan(st.plan()),
		refresh.WithInterval(st.realtimeInterval),
		refresh.WithObserver(r.observer),
		refresh.WithTracer(r.tracer),
		refresh.WithNotifier(r.notifier),
	}
	if r.pool != nil {
		coordinatorOpts = append(coordinatorOpts, refresh.WithWorkerPool(r.pool))
	}
	r.coordinator = refresh.New(r.remote, r.store, coordinatorOpts...)

	r.lifeCtx, r.lifeCancel = context.WithCancel(util.ContextWithLogger(context.WithoutCancel(ctx), r.logger))
}

// Initialize makes the resolver ready. locale overrides the configured active
// locale when not empty. With waitForFetch, onReady runs once the first fetch
// has completed or failed; otherwise the currently active content is
// published, onReady runs straight away and the fetched content is published
// silently when it arrives. Calling Initialize twice only runs onReady.
func (r *Resolver) Initialize(ctx context.Context, locale string, waitForFetch bool, onReady func()) {
	log := r.Log(ctx)
	if onReady == nil {
		onReady = func() {}
	}

	if !r.initialized.CompareAndSwap(false, true) {
		log.Warn("resolver is already initialized")
		onReady()
		return
	}

	st := r.updateSettings(func(next *settings) {
		if locale != "" {
			next.locale = locale
		}
		if next.locale == "" {
			next.locale = config.DefaultLocale
		}
		next.waitForFetch = waitForFetch
	})

	r.remote.SetSettings(st.effectiveFetchSettings())
	r.coordinator.SetPlan(st.plan())

	if st.logEnabled {
		log.WithField("locale", st.locale).
			WithField("wait_for_fetch", waitForFetch).
			WithField("realtime", st.realtime).
			Info("initializing remote resources")
	}

	if waitForFetch {
		err := r.coordinator.Trigger(r.lifeCtx, func(outcome refresh.Outcome) {
			if outcome == refresh.OutcomeFailed {
				_, _ = r.coordinator.Publish(r.lifeCtx)
			}
			onReady()
		})
		if err != nil {
			log.WithError(err).Warn("could not schedule initial fetch")
			_, _ = r.coordinator.Publish(r.lifeCtx)
			onReady()
		}
	} else {
		_, _ = r.coordinator.Publish(r.lifeCtx)
		onReady()
		if err := r.coordinator.Trigger(r.lifeCtx, nil); err != nil {
			log.WithError(err).Warn("could not schedule initial fetch")
		}
	}

	if st.realtime {
		r.runWG.Add(1)
		go func() {
			defer r.runWG.Done()
			if err := r.coordinator.Run(r.lifeCtx); err != nil && !errors.Is(err, refresh.ErrClosed) {
				util.Log(r.lifeCtx).WithError(err).Warn("realtime refresh stopped")
			}
		}()
	}
}

// Initialized reports whether Initialize has run.
func (r *Resolver) Initialized() bool {
	return r.initialized.Load()
}

// Snapshot returns the currently published resources.
func (r *Resolver) Snapshot() *snapshot.Snapshot {
	return r.store.Current()
}

// Refresh fetches and publishes now, sharing any refresh already in flight.
func (r *Resolver) Refresh(ctx context.Context) (refresh.Outcome, error) {
	return r.coordinator.Refresh(ctx)
}

// State reports the refresh coordinator state.
func (r *Resolver) State() refresh.State {
	return r.coordinator.State()
}

// Config returns the configuration object the resolver was set up with.
func (r *Resolver) Config() any {
	return r.configuration
}

// Log returns the resolver logger bound to ctx.
func (r *Resolver) Log(ctx context.Context) *util.LogEntry {
	return r.logger.WithContext(ctx)
}

// AddStartupError records a setup failure.
func (r *Resolver) AddStartupError(err error) {
	if err == nil {
		return
	}
	r.startupErrMu.Lock()
	defer r.startupErrMu.Unlock()
	r.startupErrors = append(r.startupErrors, err)
}

// StartupErrors joins every setup failure, nil when there were none.
func (r *Resolver) StartupErrors() error {
	r.startupErrMu.Lock()
	defer r.startupErrMu.Unlock()
	return errors.Join(r.startupErrors...)
}

// Close stops refreshing and releases the source connection and the worker
// pool when the resolver created it.
func (r *Resolver) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.coordinator.Close()
		r.lifeCancel()
		r.runWG.Wait()

		if r.ownsPool && r.pool != nil {
			r.pool.Shutdown()
		}

		err = r.remote.Close()
		if err != nil {
			r.Log(ctx).WithError(err).Warn("could not close resource source")
		}
	})
	return err
}
