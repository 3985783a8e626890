package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecordingAPI()
	scoped := NewScopedAPI("amazon", rec)

	scoped.ReportWarning("extractor.fetch", errors.New("boom"))
	scoped.ReportBroken("extractor.parse")
	scoped.ReportDebug("fetching", "https://example.com")
	scoped.ReportCount("observations", 3)

	require.Equal(t, "amazon: extractor.fetch", rec.Warnings()[0].Id)
	require.Equal(t, "amazon: extractor.parse", rec.Broken()[0].Id)
	require.Equal(t, "amazon: fetching", rec.Debug()[0].Id)
	n, ok := rec.Count("amazon: observations")
	require.True(t, ok)
	require.EqualValues(t, 3, n)
}

func TestTraceContextHandler(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	logger := slog.New(newHandler(buff, true))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span")
	span.End()

	require.Contains(t, buff.String(), "trace_id="+span.SpanContext().TraceID().String())

	buff.Reset()
	logger.Info("outside span")
	require.NotContains(t, buff.String(), "trace_id")
}

func TestSetupWithoutExporters(t *testing.T) {
	tel, err := Setup(context.Background(), "pricepulse-test", Config{})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
