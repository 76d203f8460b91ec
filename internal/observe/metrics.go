// Package observe provides application-wide observability primitives for
// elocute: OpenTelemetry metrics, tracing, trace-aware logging and the HTTP
// middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and bridged to
// Prometheus by [InitProvider], so they can be scraped from /metrics via
// [MetricsHandler]. Tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all elocute metrics.
const meterName = "github.com/MrWong99/elocute"

// Metrics holds all OpenTelemetry instruments for the application.
type Metrics struct {
	// AnalysisDuration tracks pronunciation analysis latency. Attributes:
	//   attribute.String("analyzer", ...), attribute.String("status", ...)
	AnalysisDuration metric.Float64Histogram

	// AnalysisRequests counts analysis requests by analyzer and status.
	AnalysisRequests metric.Int64Counter

	// CoachDuration tracks how long the coach took to write feedback.
	CoachDuration metric.Float64Histogram

	// VisualizerTicks counts waveform ticks pushed to clients.
	VisualizerTicks metric.Int64Counter

	// RecordingsSaved counts audio files written to disk.
	RecordingsSaved metric.Int64Counter

	// RecordingBytes tracks the size of saved recordings.
	RecordingBytes metric.Int64Histogram

	// OverlayTransitions counts correction carousel moves. Attribute:
	//   attribute.String("kind", ...)
	OverlayTransitions metric.Int64Counter

	// ActivePractices tracks practices currently recording.
	ActivePractices metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries in seconds. Analysis and
// coaching calls range from milliseconds (mock) to tens of seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// sizeBuckets are recording size boundaries in bytes.
var sizeBuckets = []float64{
	16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalysisDuration, err = m.Float64Histogram("elocute.analysis.duration",
		metric.WithDescription("Latency of pronunciation analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalysisRequests, err = m.Int64Counter("elocute.analysis.requests",
		metric.WithDescription("Total analysis requests by analyzer and status."),
	); err != nil {
		return nil, err
	}
	if met.CoachDuration, err = m.Float64Histogram("elocute.coach.duration",
		metric.WithDescription("Latency of coach feedback generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VisualizerTicks, err = m.Int64Counter("elocute.visualizer.ticks",
		metric.WithDescription("Total waveform ticks pushed to clients."),
	); err != nil {
		return nil, err
	}
	if met.RecordingsSaved, err = m.Int64Counter("elocute.recordings.saved",
		metric.WithDescription("Total recordings written to disk."),
	); err != nil {
		return nil, err
	}
	if met.RecordingBytes, err = m.Int64Histogram("elocute.recordings.size",
		metric.WithDescription("Size of saved recordings."),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(sizeBuckets...),
	); err != nil {
		return nil, err
	}
	if met.OverlayTransitions, err = m.Int64Counter("elocute.overlay.transitions",
		metric.WithDescription("Correction carousel transitions by kind."),
	); err != nil {
		return nil, err
	}
	if met.ActivePractices, err = m.Int64UpDownCounter("elocute.active_practices",
		metric.WithDescription("Number of practices currently recording."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("elocute.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call from [otel.GetMeterProvider]. Call [InitProvider] first so the
// instruments are exported.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAnalysis records one analysis request and its latency.
func (m *Metrics) RecordAnalysis(ctx context.Context, analyzer, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("analyzer", analyzer),
		attribute.String("status", status),
	)
	m.AnalysisRequests.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, seconds, attrs)
}

// RecordRecording records a saved recording of n bytes.
func (m *Metrics) RecordRecording(ctx context.Context, n int) {
	m.RecordingsSaved.Add(ctx, 1)
	m.RecordingBytes.Record(ctx, int64(n))
}

// RecordTransition records a carousel transition such as "moved" or
// "completed".
func (m *Metrics) RecordTransition(ctx context.Context, kind string) {
	m.OverlayTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
