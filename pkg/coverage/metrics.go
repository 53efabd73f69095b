package coverage

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSessionsTotal    = "foliage.sessions.total"
	metricHooksRegistered  = "foliage.hooks.registered"
	metricDiagnosticsTotal = "foliage.diagnostics.total"
	metricSessionDuration  = "foliage.session.duration.seconds"

	attrOp     = "op"
	attrStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 1ms to 60s; most sessions are small scripts.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10, 60}

// Metrics holds the OTel instruments of coverage sessions.
type Metrics struct {
	sessionsTotal    metric.Int64Counter
	hooksRegistered  metric.Int64Counter
	diagnosticsTotal metric.Int64Counter
	sessionDuration  metric.Float64Histogram
}

// NewMetrics creates the session instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	sessions, err := mt.Int64Counter(metricSessionsTotal,
		metric.WithDescription("Total number of coverage sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSessionsTotal, err)
	}

	hooks, err := mt.Int64Counter(metricHooksRegistered,
		metric.WithDescription("Total number of branch hooks registered"),
		metric.WithUnit("{hook}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHooksRegistered, err)
	}

	diagnostics, err := mt.Int64Counter(metricDiagnosticsTotal,
		metric.WithDescription("Total number of uncovered branch outcomes reported"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiagnosticsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricSessionDuration,
		metric.WithDescription("Coverage session duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSessionDuration, err)
	}

	return &Metrics{
		sessionsTotal:    sessions,
		hooksRegistered:  hooks,
		diagnosticsTotal: diagnostics,
		sessionDuration:  duration,
	}, nil
}

// RecordSession records a finished session.
func (cm *Metrics) RecordSession(ctx context.Context, op, status string, hooks, diagnostics int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	cm.sessionsTotal.Add(ctx, 1, attrs)
	cm.sessionDuration.Record(ctx, duration.Seconds(), attrs)
	cm.hooksRegistered.Add(ctx, int64(hooks), metric.WithAttributes(attribute.String(attrOp, op)))
	cm.diagnosticsTotal.Add(ctx, int64(diagnostics), metric.WithAttributes(attribute.String(attrOp, op)))
}
