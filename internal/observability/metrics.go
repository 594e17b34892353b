package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

const namespace = "smmpanel"

// Metrics holds the Prometheus collectors of the panel. Each instance owns a
// registry, so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	ordersClaimed    prometheus.Counter
	checkpoints      prometheus.Counter
	ordersCompleted  prometheus.Counter
	ordersSkipped    prometheus.Counter
	ordersRecovered  prometheus.Counter
	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	ordersByStatus   *prometheus.GaugeVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ordersClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "orders_claimed_total",
			Help: "Orders moved from pending to processing.",
		}),
		checkpoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "checkpoints_total",
			Help: "Progress checkpoints written.",
		}),
		ordersCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "orders_completed_total",
			Help: "Orders moved to completed.",
		}),
		ordersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "orders_skipped_total",
			Help: "Orders skipped because their stored state changed concurrently.",
		}),
		ordersRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "orders_recovered_total",
			Help: "Stranded processing orders resumed at startup.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "cycles_total",
			Help: "Engine cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "engine", Name: "cycle_duration_seconds",
			Help:    "Duration of successful engine cycles.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ordersByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "orders",
			Help: "Stored orders by status.",
		}, []string{"status"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Request latency in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
			Help: "Current number of requests being served.",
		}),
	}

	reg.MustRegister(
		m.ordersClaimed, m.checkpoints, m.ordersCompleted, m.ordersSkipped, m.ordersRecovered,
		m.cycles, m.cycleDuration, m.ordersByStatus,
		m.requestsTotal, m.requestDuration, m.requestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OrderClaimed()      { m.ordersClaimed.Inc() }
func (m *Metrics) CheckpointWritten() { m.checkpoints.Inc() }
func (m *Metrics) OrderCompleted()    { m.ordersCompleted.Inc() }
func (m *Metrics) OrderSkipped()      { m.ordersSkipped.Inc() }
func (m *Metrics) OrderRecovered()    { m.ordersRecovered.Inc() }
func (m *Metrics) CycleFailed()       { m.cycles.WithLabelValues("failed").Inc() }

func (m *Metrics) CycleCompleted(_ int, took time.Duration) {
	m.cycles.WithLabelValues("ok").Inc()
	m.cycleDuration.Observe(took.Seconds())
}

// SetOrderCounts publishes a status breakdown. Statuses missing from counts are
// reported as zero.
func (m *Metrics) SetOrderCounts(counts map[model.OrderStatus]int) {
	for _, status := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusCompleted} {
		m.ordersByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// RequestStarted marks a request in flight and returns the callback that
// records its outcome.
func (m *Metrics) RequestStarted() func(method, path string, status int) {
	start := time.Now()
	m.requestsInFlight.Inc()
	return func(method, path string, status int) {
		m.requestsInFlight.Dec()
		m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
