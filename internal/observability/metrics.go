// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Engine metrics
	TradesReceived   prometheus.Counter
	TradesIneligible prometheus.Counter
	TradesRejected   *prometheus.CounterVec
	LedgerOutcomes   *prometheus.CounterVec
	OffCurveSkipped  prometheus.Counter

	// Map state
	Wallets       prometheus.Gauge
	HolderTokens  prometheus.Gauge
	Edges         prometheus.Gauge
	DroppedEdges  prometheus.Counter
	SceneClients  prometheus.Gauge
	LayoutLatency prometheus.Histogram

	// Sink metrics
	SinkErrors  *prometheus.CounterVec
	SinkLatency *prometheus.HistogramVec

	// Feed metrics
	FeedMessages   *prometheus.CounterVec
	FeedReconnects *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastTradeProcessed prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "walletmap"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Engine metrics
		TradesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_received_total",
			Help:      "Total number of trades received from the feed",
		}),
		TradesIneligible: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_ineligible_total",
			Help:      "Total number of trades not paired with the quote asset or on a bonding curve",
		}),
		TradesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_rejected_total",
			Help:      "Total number of malformed trades by reason",
		}, []string{"reason"}),
		LedgerOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "outcomes_total",
			Help:      "Ledger update outcomes",
		}, []string{"outcome"}),
		OffCurveSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "off_curve_wallets_skipped_total",
			Help:      "Trades skipped because the wallet is a program-derived address",
		}),

		// Map state
		Wallets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "wallets",
			Help:      "Number of wallets known to the ledger",
		}),
		HolderTokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "tokens",
			Help:      "Number of token nodes in the latest layout",
		}),
		Edges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "edges",
			Help:      "Number of edges in the latest layout",
		}),
		DroppedEdges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presentation",
			Name:      "dropped_edges_total",
			Help:      "Edges dropped because an endpoint has no node",
		}),
		SceneClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presentation",
			Name:      "clients",
			Help:      "Connected scene stream clients",
		}),
		LayoutLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "compute_seconds",
			Help:      "Holder aggregation and layout latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		// Sink metrics
		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Total number of sink publish errors",
		}, []string{"sink"}),
		SinkLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publish_seconds",
			Help:      "Sink publish latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),

		// Feed metrics
		FeedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Messages received per source",
		}, []string{"source"}),
		FeedReconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Feed reconnect attempts by result",
		}, []string{"result"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastTradeProcessed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_trade_processed_timestamp",
			Help:      "Unix timestamp of the last processed trade",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer, "")

// RecordTradeReceived increments the trades received counter.
func RecordTradeReceived() {
	DefaultMetrics.TradesReceived.Inc()
}

// RecordTradeIneligible increments the ineligible trades counter.
func RecordTradeIneligible() {
	DefaultMetrics.TradesIneligible.Inc()
}

// RecordTradeRejected records a malformed trade.
func RecordTradeRejected(reason string) {
	DefaultMetrics.TradesRejected.WithLabelValues(reason).Inc()
}

// RecordOffCurveSkipped increments the off-curve wallet counter.
func RecordOffCurveSkipped() {
	DefaultMetrics.OffCurveSkipped.Inc()
}

// RecordLedgerOutcome records a ledger update outcome and the wallet count.
func RecordLedgerOutcome(outcome string, wallets int) {
	DefaultMetrics.LedgerOutcomes.WithLabelValues(outcome).Inc()
	DefaultMetrics.Wallets.Set(float64(wallets))
}

// RecordLayout records layout size and compute latency.
func RecordLayout(tokens, edges int, seconds float64) {
	DefaultMetrics.HolderTokens.Set(float64(tokens))
	DefaultMetrics.Edges.Set(float64(edges))
	DefaultMetrics.LayoutLatency.Observe(seconds)
}

// RecordDroppedEdges adds to the dropped edges counter.
func RecordDroppedEdges(n int) {
	if n > 0 {
		DefaultMetrics.DroppedEdges.Add(float64(n))
	}
}

// UpdateSceneClients sets the connected scene clients gauge.
func UpdateSceneClients(n int) {
	DefaultMetrics.SceneClients.Set(float64(n))
}

// RecordSinkPublish records sink latency and errors.
func RecordSinkPublish(sink string, seconds float64, err error) {
	DefaultMetrics.SinkLatency.WithLabelValues(sink).Observe(seconds)
	if err != nil {
		DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
	}
}

// RecordFeedMessage increments the per-source message counter.
func RecordFeedMessage(source string) {
	DefaultMetrics.FeedMessages.WithLabelValues(source).Inc()
}

// RecordFeedReconnect records a reconnect attempt.
func RecordFeedReconnect(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DefaultMetrics.FeedReconnects.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// UpdateLastTradeProcessed sets the last processed trade timestamp.
func UpdateLastTradeProcessed(unix int64) {
	DefaultMetrics.LastTradeProcessed.Set(float64(unix))
}
