package coverage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	m := findMetric(rm, name)
	require.NotNil(t, m, name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestAnalyzer_RecordsSessionMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	an := newAnalyzer(t, coverage.WithMeter(mp.Meter("test")))

	_, err := an.RunText(context.Background(), "a = 5\nif a > 4\n  a\nend", "")
	require.NoError(t, err)

	_, err = an.RunText(context.Background(), "raise 'x'", "")
	require.ErrorIs(t, err, coverage.ErrExecution)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, rm, "foliage.sessions.total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "foliage.hooks.registered"))
	assert.Equal(t, int64(1), sumOf(t, rm, "foliage.diagnostics.total"))

	duration := findMetric(rm, "foliage.session.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(2), count)
}

func TestAnalyzer_SessionSpan(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	an := newAnalyzer(t, coverage.WithTracer(tp.Tracer("test")))

	_, err := an.RunText(context.Background(), "raise 'x'", "t.rb")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "foliage.session", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := make(map[string]string)
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	assert.Equal(t, "run", attrs["foliage.op"])
	assert.Equal(t, "t.rb", attrs["foliage.file"])
}
