package config

import (
	"context"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "telereso/config/" + string(c)
}

const (
	ctxKeyConfiguration = contextKey("configurationKey")

	DefaultMinimumFetchInterval = 12 * time.Hour
	DefaultRealtimeInterval     = 30 * time.Second
	DefaultFetchTimeout         = time.Minute

	// DefaultLocale is used when neither the configuration nor the system names one.
	DefaultLocale = "en"
)

// ToContext adds resolver configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts resolver configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	// Resolver log gates
	ResourceLogEnabled  bool `envDefault:"true"  env:"TELERESO_LOG_ENABLED"   yaml:"log_enabled"`
	ResourceLogStrings  bool `envDefault:"false" env:"TELERESO_LOG_STRINGS"   yaml:"log_strings"`
	ResourceLogDrawable bool `envDefault:"false" env:"TELERESO_LOG_DRAWABLES" yaml:"log_drawables"`

	Locale         string   `envDefault:""  env:"TELERESO_LOCALE"          yaml:"locale"`
	SystemLocale   string   `envDefault:""  env:"LANG"                     yaml:"-"`
	PreloadLocales []string `               env:"TELERESO_PRELOAD_LOCALES" yaml:"preload_locales"`
	DensityScale   float64  `envDefault:"1" env:"TELERESO_DENSITY_SCALE"   yaml:"density_scale"`

	Realtime             bool          `envDefault:"false" env:"TELERESO_REALTIME"               yaml:"realtime"`
	WaitForFetch         bool          `envDefault:"false" env:"TELERESO_WAIT_FOR_FETCH"         yaml:"wait_for_fetch"`
	MinimumFetchInterval time.Duration `envDefault:"12h"   env:"TELERESO_MINIMUM_FETCH_INTERVAL" yaml:"minimum_fetch_interval"`
	RealtimeInterval     time.Duration `envDefault:"30s"   env:"TELERESO_REALTIME_INTERVAL"      yaml:"realtime_interval"`
	FetchTimeout         time.Duration `envDefault:"60s"   env:"TELERESO_FETCH_TIMEOUT"          yaml:"fetch_timeout"`

	SourceURI  string `envDefault:"" env:"TELERESO_SOURCE_URI"  yaml:"source_uri"`
	SourceName string `envDefault:"" env:"TELERESO_SOURCE_NAME" yaml:"source_name"`
	SourceKey  string `envDefault:"" env:"TELERESO_SOURCE_KEY"  yaml:"source_key"`
	ChangesURI string `envDefault:"" env:"TELERESO_CHANGES_URI" yaml:"changes_uri"`

	TranslationsFolder string   `envDefault:""   env:"TRANSLATIONS_FOLDER"    yaml:"translations_folder"`
	TranslationsLangs  []string `envDefault:"en" env:"TRANSLATIONS_LANGUAGES" yaml:"translations_languages"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"1"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"16" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"  env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s" env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

// ConfigurationResources controls which resolutions are logged.
type ConfigurationResources interface {
	ResourceLogs() bool
	StringLogs() bool
	DrawableLogs() bool
}

var _ ConfigurationResources = new(ConfigurationDefault)

func (c *ConfigurationDefault) ResourceLogs() bool {
	return c.ResourceLogEnabled
}

func (c *ConfigurationDefault) StringLogs() bool {
	return c.ResourceLogStrings
}

func (c *ConfigurationDefault) DrawableLogs() bool {
	return c.ResourceLogDrawable
}

type ConfigurationRefresh interface {
	ActiveLocale() string
	PreloadedLocales() []string
	DisplayScale() float64
	IsRealtime() bool
	IsWaitForFetch() bool
	GetMinimumFetchInterval() time.Duration
	GetRealtimeInterval() time.Duration
	GetFetchTimeout() time.Duration
}

var _ ConfigurationRefresh = new(ConfigurationDefault)

// ActiveLocale is the configured locale, else the system locale from LANG,
// else DefaultLocale.
func (c *ConfigurationDefault) ActiveLocale() string {
	if locale := strings.TrimSpace(c.Locale); locale != "" {
		return locale
	}
	if locale := SystemLocale(c.SystemLocale); locale != "" {
		return locale
	}
	return DefaultLocale
}

// SystemLocale extracts the locale of a POSIX LANG value such as
// "en_US.UTF-8" or "sr_RS@latin". The C and POSIX locales name no language.
func SystemLocale(lang string) string {
	locale, _, _ := strings.Cut(strings.TrimSpace(lang), ".")
	locale, _, _ = strings.Cut(locale, "@")
	switch locale {
	case "C", "POSIX":
		return ""
	}
	return locale
}

func (c *ConfigurationDefault) PreloadedLocales() []string {
	var locales []string
	for _, l := range c.PreloadLocales {
		if l = strings.TrimSpace(l); l != "" {
			locales = append(locales, l)
		}
	}
	return locales
}

func (c *ConfigurationDefault) DisplayScale() float64 {
	if c.DensityScale <= 0 {
		return 1
	}
	return c.DensityScale
}

func (c *ConfigurationDefault) IsRealtime() bool {
	return c.Realtime
}

func (c *ConfigurationDefault) IsWaitForFetch() bool {
	return c.WaitForFetch
}

func (c *ConfigurationDefault) GetMinimumFetchInterval() time.Duration {
	if c.MinimumFetchInterval < 0 {
		return DefaultMinimumFetchInterval
	}
	return c.MinimumFetchInterval
}

func (c *ConfigurationDefault) GetRealtimeInterval() time.Duration {
	if c.RealtimeInterval <= 0 {
		return DefaultRealtimeInterval
	}
	return c.RealtimeInterval
}

func (c *ConfigurationDefault) GetFetchTimeout() time.Duration {
	if c.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return c.FetchTimeout
}

type ConfigurationSource interface {
	GetSourceURI() string
	GetSourceName() string
	GetSourceKey() string
	GetChangesURI() string
}

var _ ConfigurationSource = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetSourceURI() string {
	return strings.TrimSpace(c.SourceURI)
}

func (c *ConfigurationDefault) GetSourceName() string {
	return c.SourceName
}

func (c *ConfigurationDefault) GetSourceKey() string {
	return c.SourceKey
}

func (c *ConfigurationDefault) GetChangesURI() string {
	return strings.TrimSpace(c.ChangesURI)
}

type ConfigurationLocalization interface {
	GetTranslationsFolder() string
	GetTranslationsLanguages() []string
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetTranslationsFolder() string {
	return c.TranslationsFolder
}

func (c *ConfigurationDefault) GetTranslationsLanguages() []string {
	return c.TranslationsLangs
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}
