package queue

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Metrics instruments Publish/Drain/Wait, per SPEC_FULL.md §4.11. Every
// method is safe to call on a nil *Metrics (the WithMetrics default), so
// call sites never need to nil-check before recording.
type Metrics struct {
	published   prometheus.Counter
	publishSize prometheus.Histogram
	drained     prometheus.Counter
	dataGrowth  prometheus.Counter
	indexGrowth prometheus.Counter
	waitSeconds prometheus.Histogram
	consumerLag prometheus.Gauge

	meter  metric.Meter
	tracer trace.Tracer

	otelPublished   metric.Int64Counter
	otelPublishSize metric.Int64Histogram
	otelDrained     metric.Int64Counter
	otelDataGrowth  metric.Int64Counter
	otelIndexGrowth metric.Int64Counter
	otelWaitSeconds metric.Float64Histogram
	otelConsumerLag metric.Float64Gauge
}

// NewMetrics registers the prometheus collectors against reg (pass
// prometheus.DefaultRegisterer for the global registry, or nil to skip
// prometheus registration entirely) and attaches an OpenTelemetry meter
// and tracer obtained from mp/tp (either may be nil).
func NewMetrics(reg prometheus.Registerer, mp metric.MeterProvider, tp trace.TracerProvider) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmqueue_published_total",
			Help: "Total messages published.",
		}),
		publishSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mmqueue_publish_bytes",
			Help:    "Published message size in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12),
		}),
		drained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmqueue_drained_total",
			Help: "Total messages delivered to a consumer via Drain.",
		}),
		dataGrowth: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmqueue_data_growths_total",
			Help: "Total times the data file was extended.",
		}),
		indexGrowth: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmqueue_index_growths_total",
			Help: "Total times the index file was extended.",
		}),
		waitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mmqueue_wait_duration_seconds",
			Help:    "Time spent blocked in Wait/WaitTimeout.",
			Buckets: prometheus.DefBuckets,
		}),
		consumerLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mmqueue_consumer_lag",
			Help: "index.next_seq minus a consumer's last drained sequence.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.published, m.publishSize, m.drained, m.dataGrowth, m.indexGrowth, m.waitSeconds, m.consumerLag)
	}
	if mp != nil {
		m.meter = mp.Meter("github.com/srediag/mmqueue/pkg/queue")
		m.otelPublished, _ = m.meter.Int64Counter("mmqueue.published",
			metric.WithDescription("Total messages published."))
		m.otelPublishSize, _ = m.meter.Int64Histogram("mmqueue.publish.bytes",
			metric.WithDescription("Published message size in bytes."), metric.WithUnit("By"))
		m.otelDrained, _ = m.meter.Int64Counter("mmqueue.drained",
			metric.WithDescription("Total messages delivered to a consumer via Drain."))
		m.otelDataGrowth, _ = m.meter.Int64Counter("mmqueue.data.growths",
			metric.WithDescription("Total times the data file was extended."))
		m.otelIndexGrowth, _ = m.meter.Int64Counter("mmqueue.index.growths",
			metric.WithDescription("Total times the index file was extended."))
		m.otelWaitSeconds, _ = m.meter.Float64Histogram("mmqueue.wait.duration",
			metric.WithDescription("Time spent blocked in Wait/WaitTimeout."), metric.WithUnit("s"))
		m.otelConsumerLag, _ = m.meter.Float64Gauge("mmqueue.consumer.lag",
			metric.WithDescription("index.next_seq minus a consumer's last drained sequence."))
	}
	if tp != nil {
		m.tracer = tp.Tracer("github.com/srediag/mmqueue/pkg/queue")
	}
	return m
}

func (m *Metrics) IncPublished(size int) {
	if m == nil {
		return
	}
	m.published.Inc()
	m.publishSize.Observe(float64(size))
	if m.otelPublished != nil {
		ctx := context.Background()
		m.otelPublished.Add(ctx, 1)
		m.otelPublishSize.Record(ctx, int64(size))
	}
}

func (m *Metrics) IncDrained() {
	if m == nil {
		return
	}
	m.drained.Inc()
	if m.otelDrained != nil {
		m.otelDrained.Add(context.Background(), 1)
	}
}

func (m *Metrics) IncDataGrowth() {
	if m == nil {
		return
	}
	m.dataGrowth.Inc()
	if m.otelDataGrowth != nil {
		m.otelDataGrowth.Add(context.Background(), 1)
	}
}

func (m *Metrics) IncIndexGrowth() {
	if m == nil {
		return
	}
	m.indexGrowth.Inc()
	if m.otelIndexGrowth != nil {
		m.otelIndexGrowth.Add(context.Background(), 1)
	}
}

func (m *Metrics) ObserveWaitSeconds(s float64) {
	if m == nil {
		return
	}
	m.waitSeconds.Observe(s)
	if m.otelWaitSeconds != nil {
		m.otelWaitSeconds.Record(context.Background(), s)
	}
}

func (m *Metrics) SetConsumerLag(lag float64) {
	if m == nil {
		return
	}
	m.consumerLag.Set(lag)
	if m.otelConsumerLag != nil {
		m.otelConsumerLag.Record(context.Background(), lag)
	}
}

// StartSpan opens an OpenTelemetry span for op if a tracer was configured,
// returning a no-op span and the input ctx unchanged otherwise.
func (m *Metrics) StartSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	if m == nil || m.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, op)
}
