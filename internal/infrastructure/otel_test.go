package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/internal/config"
)

func TestInitializeOTelPrometheus(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	providers, err := InitializeOTel(OTelConfigFrom(config.TelemetryConfig{
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.ObservationFound(ctx, "博亚和讯")
	metrics.SearchFailed(ctx, "猪好多网")
	metrics.BackupUsed(ctx, "egg")
	metrics.PriceMissing(ctx, "hen")
	metrics.ReportRun(ctx, "success")
	metrics.StageDuration(ctx, "collect", 250*time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, "collection_observations")
	assert.Contains(t, body, "collection_backup")
	assert.Contains(t, body, "report_runs")
	assert.Contains(t, body, "pipeline_stage_duration")
}

func TestInitializeOTelUnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "jaeger"

	_, err := InitializeOTel(cfg, nil)
	assert.Error(t, err)
}

func TestPipelineMetricsGlobalMeter(t *testing.T) {
	metrics, err := NewPipelineMetrics(nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		metrics.ObservationFound(context.Background(), "source")
		metrics.StageDuration(context.Background(), "render", time.Second)
	})
}
