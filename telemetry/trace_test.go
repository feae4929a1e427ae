package telemetry_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pitabwire/telereso/telemetry"
)

type TraceSuite struct {
	suite.Suite
}

func TestTraceSuite(t *testing.T) {
	suite.Run(t, new(TraceSuite))
}

func (s *TraceSuite) TestSpanStatus() {
	testCases := []struct {
		name   string
		err    error
		status codes.Code
	}{
		{name: "ok", status: codes.Ok},
		{name: "failed", err: errors.New("offline"), status: codes.Error},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			recorder := tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			tracer := telemetry.NewTracer(provider)

			_, span := tracer.Start(context.Background(), "refresh")
			tracer.End(span, tc.err, telemetry.OutcomeAttribute("published"))

			ended := recorder.Ended()
			s.Require().Len(ended, 1)
			s.Equal("refresh", ended[0].Name())
			s.Equal(tc.status, ended[0].Status().Code)
		})
	}
}

type memoryExporter struct {
	mu     sync.Mutex
	bodies []string
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, record := range records {
		e.bodies = append(e.bodies, record.Body().AsString())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error {
	return nil
}

func (e *memoryExporter) ForceFlush(context.Context) error {
	return nil
}

func (e *memoryExporter) Bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bodies...)
}

func (s *TraceSuite) TestLogHandlerForwardsRecords() {
	exporter := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	logger := slog.New(telemetry.LogHandler(provider))
	logger.Info("snapshot published", "groups", 3)

	s.Equal([]string{"snapshot published"}, exporter.Bodies())
	s.NotNil(telemetry.LogHandler(nil))
}
