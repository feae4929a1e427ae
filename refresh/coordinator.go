// Package refresh keeps the published resource snapshot in step with the
// remote source: it fetches, activates, rebuilds and swaps, one cycle at a time.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/pitabwire/telereso/snapshot"
	"github.com/pitabwire/telereso/source"
	"github.com/pitabwire/telereso/telemetry"
	"github.com/pitabwire/telereso/workerpool"
)

// ErrClosed is returned by operations on a closed coordinator.
var ErrClosed = errors.New("refresh coordinator is closed")

// DefaultInterval is how often Run refreshes without a notifier signal.
const DefaultInterval = 30 * time.Second

const (
	cycleKey = "refresh"
	runKey   = attribute.Key("refresh_run")
)

type State int32

const (
	StateIdle State = iota
	StateFetching
	StateActivating
	StateFetchFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateActivating:
		return "activating"
	case StateFetchFailed:
		return "fetch_failed"
	default:
		return "unknown"
	}
}

// Outcome is how a cycle ended.
type Outcome int

const (
	// OutcomeUnchanged means the rebuilt snapshot matched the published one.
	OutcomeUnchanged Outcome = iota
	// OutcomePublished means a new snapshot was swapped in.
	OutcomePublished
	// OutcomeFailed means the fetch or activation failed and nothing changed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomePublished:
		return "published"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPlan sets the locales and density group built into each snapshot.
func WithPlan(plan Plan) Option {
	return func(c *Coordinator) {
		c.plan.Store(&plan)
	}
}

// WithWorkerPool runs triggered cycles on pool instead of fresh goroutines.
func WithWorkerPool(pool workerpool.WorkerPool) Option {
	return func(c *Coordinator) {
		c.pool = pool
	}
}

// WithNotifier makes Run refresh whenever the notifier signals a change.
func WithNotifier(notifier source.Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = notifier
	}
}

// WithInterval sets the Run tick interval.
func WithInterval(interval time.Duration) Option {
	return func(c *Coordinator) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithObserver reports every finished cycle.
func WithObserver(observer telemetry.RefreshObserver) Option {
	return func(c *Coordinator) {
		c.observer = observer
	}
}

// WithTracer traces every cycle on tracer.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(c *Coordinator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// Coordinator is the single writer of a snapshot.Store.
type Coordinator struct {
	remote   source.Remote
	store    *snapshot.Store
	pool     workerpool.WorkerPool
	notifier source.Notifier
	observer telemetry.RefreshObserver
	tracer   *telemetry.Tracer
	interval time.Duration

	plan    atomic.Pointer[Plan]
	state   atomic.Int32
	closed  atomic.Bool
	cycles  singleflight.Group
	writeMu sync.Mutex
}

// New returns an idle coordinator publishing into store.
func New(remote source.Remote, store *snapshot.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		remote:   remote,
		store:    store,
		interval: DefaultInterval,
		tracer:   telemetry.NewTracer(nil),
	}
	c.plan.Store(&Plan{})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports where the coordinator is in its cycle.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Plan returns the plan snapshots are currently built with.
func (c *Coordinator) Plan() Plan {
	return *c.plan.Load()
}

// SetPlan changes the plan used by subsequent builds.
func (c *Coordinator) SetPlan(plan Plan) {
	c.plan.Store(&plan)
}

// Refresh runs one fetch, activate and build cycle. Callers arriving while a
// cycle is in flight share its result. A failed fetch keeps the current
// snapshot and is returned as OutcomeFailed with the wrapped error.
func (c *Coordinator) Refresh(ctx context.Context) (Outcome, error) {
	if c.closed.Load() {
		return OutcomeFailed, ErrClosed
	}

	result, err, _ := c.cycles.Do(cycleKey, func() (any, error) {
		return c.cycle(ctx)
	})

	outcome, _ := result.(Outcome)
	return outcome, err
}

// Trigger runs a coalesced Refresh in the background and hands its outcome to done.
func (c *Coordinator) Trigger(ctx context.Context, done func(Outcome)) error {
	if c.closed.Load() {
		return ErrClosed
	}

	task := func() {
		outcome, err := c.Refresh(ctx)
		if err != nil && !errors.Is(err, ErrClosed) {
			util.Log(ctx).WithError(err).Debug("triggered refresh did not complete")
		}
		if done != nil {
			done(outcome)
		}
	}

	if c.pool == nil {
		go task()
		return nil
	}
	return c.pool.Submit(ctx, task)
}

// Publish builds from the currently active remote content without fetching.
func (c *Coordinator) Publish(ctx context.Context) (Outcome, error) {
	if c.closed.Load() {
		return OutcomeFailed, ErrClosed
	}
	return c.publish(util.Log(ctx)), nil
}

// Run refreshes every interval and on each notifier signal until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	log := util.Log(ctx).WithField("interval", c.interval.String())

	var changes <-chan struct{}
	if c.notifier != nil {
		watched, err := c.notifier.Watch(ctx)
		if err != nil {
			log.WithError(err).Warn("could not watch for remote changes, relying on the interval")
		} else {
			changes = watched
		}
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Debug("realtime refresh started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("realtime refresh stopped")
			return nil
		case <-ticker.C:
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
		}

		if err := c.Trigger(ctx, nil); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			log.WithError(err).Warn("could not schedule refresh")
		}
	}
}

// Close stops further cycles. A cycle already running completes.
func (c *Coordinator) Close() {
	c.closed.Store(true)
}

func (c *Coordinator) cycle(ctx context.Context) (outcome Outcome, err error) {
	started := time.Now()
	runID := xid.New().String()
	log := util.Log(ctx).WithField("refresh", runID)

	ctx, span := c.tracer.Start(ctx, "refresh", runKey.String(runID))
	defer func() {
		c.tracer.End(span, err, telemetry.OutcomeAttribute(outcome.String()))
	}()

	c.state.Store(int32(StateFetching))
	blob, err := c.remote.Fetch(ctx)
	if err == nil {
		c.state.Store(int32(StateActivating))
		_, err = c.remote.Activate(ctx, blob)
	}
	if err != nil {
		c.state.Store(int32(StateFetchFailed))
		log.WithError(err).Warn("remote refresh failed, keeping the current snapshot")
		c.state.Store(int32(StateIdle))
		c.observe(ctx, OutcomeFailed, started)
		return OutcomeFailed, err
	}

	outcome = c.publish(log)
	c.state.Store(int32(StateIdle))
	c.observe(ctx, outcome, started)
	return outcome, nil
}

func (c *Coordinator) publish(log *util.LogEntry) Outcome {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next := Build(log, c.remote.Active(), c.Plan())
	if next.Fingerprint() == c.store.Current().Fingerprint() {
		log.Debug("remote resources unchanged")
		return OutcomeUnchanged
	}

	c.store.Replace(next)
	log.WithField("groups", next.Groups()).Debug("published resource snapshot")
	return OutcomePublished
}

func (c *Coordinator) observe(ctx context.Context, outcome Outcome, started time.Time) {
	if c.observer != nil {
		c.observer.OnRefresh(ctx, outcome.String(), time.Since(started))
	}
}
