package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// latencyBuckets spans 1ms to 1s, matching the expected gateway envelope.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}

// Metrics owns the process-wide Prometheus registry and every series the
// gateway records. All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	ordersTotal     *prometheus.CounterVec
	ordersRejected  *prometheus.CounterVec
	tradesTotal     prometheus.Counter
	tradeVolume     *prometheus.CounterVec
	orderLatency    prometheus.Histogram
	requestLatency  *prometheus.HistogramVec
	engineConnected prometheus.Gauge
	bookDepth       *prometheus.GaugeVec
}

// New builds a registry with the gateway series plus the standard Go and
// process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ordersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Orders accepted by the engine, by side, type and resulting status.",
		}, []string{"side", "type", "status"}),
		ordersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Orders rejected by the engine, by rejection reason.",
		}, []string{"reason"}),
		tradesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "trades_total",
			Help: "Trades produced by order placement.",
		}),
		tradeVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trade_volume_total",
			Help: "Traded quantity per symbol, in fixed-point 1e8 units.",
		}, []string{"symbol"}),
		orderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_latency_seconds",
			Help:    "Engine round-trip latency for order placement.",
			Buckets: latencyBuckets,
		}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "request_latency_seconds",
			Help:    "HTTP request latency by method and endpoint.",
			Buckets: latencyBuckets,
		}, []string{"method", "endpoint"}),
		engineConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "engine_connected",
			Help: "1 when the engine subprocess is reachable, 0 otherwise.",
		}),
		bookDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "book_depth",
			Help: "Price levels observed on each side of the book.",
		}, []string{"symbol", "side"}),
	}
}

// RecordOrder counts an accepted order.
func (m *Metrics) RecordOrder(side, orderType, status string) {
	m.ordersTotal.WithLabelValues(side, orderType, status).Inc()
}

// RecordOrderRejected counts an engine rejection by reason code.
func (m *Metrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordTrade counts one trade and adds its quantity to the symbol volume.
func (m *Metrics) RecordTrade(symbol string, quantity int64) {
	m.tradesTotal.Inc()
	m.tradeVolume.WithLabelValues(symbol).Add(float64(quantity))
}

// ObserveOrderLatency records one engine round trip for order placement.
func (m *Metrics) ObserveOrderLatency(d time.Duration) {
	m.orderLatency.Observe(d.Seconds())
}

// ObserveRequestLatency records one handled HTTP request.
func (m *Metrics) ObserveRequestLatency(method, endpoint string, d time.Duration) {
	m.requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// SetEngineConnected flips the engine liveness gauge.
func (m *Metrics) SetEngineConnected(connected bool) {
	if connected {
		m.engineConnected.Set(1)
	} else {
		m.engineConnected.Set(0)
	}
}

// SetBookDepth records the level counts returned by a book snapshot.
func (m *Metrics) SetBookDepth(symbol string, bids, asks int) {
	m.bookDepth.WithLabelValues(symbol, "bids").Set(float64(bids))
	m.bookDepth.WithLabelValues(symbol, "asks").Set(float64(asks))
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
