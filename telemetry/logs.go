package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// LogHandler forwards slog records to an OpenTelemetry logger provider, the
// global one when provider is nil.
func LogHandler(provider log.LoggerProvider) slog.Handler {
	if provider == nil {
		provider = global.GetLoggerProvider()
	}
	return otelslog.NewHandler(Pkg,
		otelslog.WithSource(true),
		otelslog.WithLoggerProvider(provider))
}
