package metrics

import (
	"context"
	"net/http"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weather_relay"

// Metrics exports the latest reading and dispatch outcomes.
type Metrics struct {
	registry *prometheus.Registry

	readingValue     *prometheus.GaugeVec
	readingBand      *prometheus.GaugeVec
	ingestTotal      prometheus.Counter
	lastIngest       prometheus.Gauge
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_value",
			Help:      "Latest value reported by the device per channel.",
		}, []string{"channel"}),
		readingBand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_band",
			Help:      "1 for the band the latest value falls into, 0 otherwise.",
		}, []string{"channel", "band"}),
		ingestTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Accepted sensor readings.",
		}),
		lastIngest: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_ingest_timestamp_seconds",
			Help:      "Unix time of the latest accepted reading.",
		}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Outbound chat messages by kind and status.",
		}, []string{"kind", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of calls to the chat API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.readingValue,
		m.readingBand,
		m.ingestTotal,
		m.lastIngest,
		m.dispatchTotal,
		m.dispatchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Publish records an accepted reading.
func (m *Metrics) Publish(_ context.Context, snap models.Snapshot, labels classifier.Labels) error {
	m.ingestTotal.Inc()
	m.lastIngest.Set(float64(snap.ReceivedAt.UnixNano()) / 1e9)
	for _, ch := range classifier.Channels {
		m.readingValue.WithLabelValues(string(ch)).Set(classifier.Value(snap.Reading, ch))
		m.readingBand.DeletePartialMatch(prometheus.Labels{"channel": string(ch)})
		m.readingBand.WithLabelValues(string(ch), labels.Get(ch).Key).Set(1)
	}
	return nil
}

// ObserveDispatch records one dispatch attempt. Duplicates carry no latency.
func (m *Metrics) ObserveDispatch(kind, status string, elapsed time.Duration) {
	m.dispatchTotal.WithLabelValues(kind, status).Inc()
	if elapsed > 0 {
		m.dispatchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
