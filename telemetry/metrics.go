package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Units are encoded according to the case-sensitive abbreviations from the
// Unified Code for Units of Measure: http://unitsofmeasure.org/ucum.html.
const (
	unitDimensionless = "1"
	unitMilliseconds  = "ms"

	// Pkg prefixes every instrument name.
	Pkg = "telereso"

	notFoundMeter = "/resources_not_found"
	refreshMeter  = "/refreshes"
	latencyMeter  = "/refresh/latency"
)

const (
	domainKey  = attribute.Key("domain")
	outcomeKey = attribute.Key("outcome")
	packageKey = attribute.Key("package")
)

var defaultMillisecondsBoundaries = []float64{ //nolint:gochecknoglobals // histogram boundaries shared by every view
	1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000,
}

// Hook is told about resources that could not be resolved from any source.
type Hook interface {
	OnResourceNotFound(ctx context.Context, domain string, key string)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, domain string, key string)

func (f HookFunc) OnResourceNotFound(ctx context.Context, domain string, key string) {
	f(ctx, domain, key)
}

// RefreshObserver is told how each refresh cycle ended.
type RefreshObserver interface {
	OnRefresh(ctx context.Context, outcome string, took time.Duration)
}

// Metrics records resolver activity as OpenTelemetry instruments.
type Metrics struct {
	notFound metric.Int64Counter
	refresh  metric.Int64Counter
	latency  metric.Float64Histogram
}

var (
	_ Hook            = (*Metrics)(nil)
	_ RefreshObserver = (*Metrics)(nil)
)

// NewMetrics creates the instruments on provider, or the global provider when nil.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(Pkg, metric.WithInstrumentationAttributes(packageKey.String(Pkg)))

	notFound, err := meter.Int64Counter(
		Pkg+notFoundMeter,
		metric.WithDescription("Resources that resolved to nothing"),
		metric.WithUnit(unitDimensionless),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create %s counter: %w", notFoundMeter, err)
	}

	refresh, err := meter.Int64Counter(
		Pkg+refreshMeter,
		metric.WithDescription("Completed refresh cycles by outcome"),
		metric.WithUnit(unitDimensionless),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create %s counter: %w", refreshMeter, err)
	}

	latency, err := meter.Float64Histogram(
		Pkg+latencyMeter,
		metric.WithDescription("Latency distribution of refresh cycles"),
		metric.WithUnit(unitMilliseconds),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create %s histogram: %w", latencyMeter, err)
	}

	return &Metrics{notFound: notFound, refresh: refresh, latency: latency}, nil
}

// OnResourceNotFound counts misses per domain. Keys are left out to keep the
// attribute set bounded.
func (m *Metrics) OnResourceNotFound(ctx context.Context, domain string, _ string) {
	m.notFound.Add(ctx, 1, metric.WithAttributes(domainKey.String(domain)))
}

func (m *Metrics) OnRefresh(ctx context.Context, outcome string, took time.Duration) {
	attrs := metric.WithAttributes(outcomeKey.String(outcome))
	m.refresh.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(took)/float64(time.Millisecond), attrs)
}

// Views returns the histogram view refresh latency should be exported with.
func Views() []sdkmetric.View {
	return []sdkmetric.View{
		func(inst sdkmetric.Instrument) (sdkmetric.Stream, bool) {
			if inst.Kind != sdkmetric.InstrumentKindHistogram || inst.Name != Pkg+latencyMeter {
				return sdkmetric.Stream{}, false
			}
			return sdkmetric.Stream{
				Name:        inst.Name,
				Description: "Distribution of refresh latency, by outcome.",
				Unit:        inst.Unit,
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: defaultMillisecondsBoundaries,
				},
				AttributeFilter: func(kv attribute.KeyValue) bool {
					return kv.Key == outcomeKey
				},
			}, true
		},
	}
}

// Hooks fans a not-found event out to several hooks.
type Hooks []Hook

func (h Hooks) OnResourceNotFound(ctx context.Context, domain string, key string) {
	for _, hook := range h {
		if hook != nil {
			hook.OnResourceNotFound(ctx, domain, key)
		}
	}
}
