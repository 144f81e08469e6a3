package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decision metrics
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingtrader_signals_total",
			Help: "Directional signals emitted, by symbol and direction",
		},
		[]string{"symbol", "direction"},
	)

	vetoesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swingtrader_vetoes_total",
			Help: "Entries vetoed by the risk manager",
		},
	)

	// Position metrics
	entriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingtrader_entries_total",
			Help: "Positions opened, by underlying",
		},
		[]string{"underlying"},
	)

	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingtrader_exits_total",
			Help: "Positions closed, by exit reason",
		},
		[]string{"reason"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingtrader_open_positions",
			Help: "Open positions on the book",
		},
	)

	accountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingtrader_account_equity",
			Help: "Account equity in dollars",
		},
	)

	realizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingtrader_realized_pnl",
			Help: "Cumulative realized P&L in dollars since start",
		},
	)

	// Loop metrics
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swingtrader_tick_duration_seconds",
			Help:    "Duration of a scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingtrader_errors_total",
			Help: "Errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal)
	prometheus.MustRegister(vetoesTotal)
	prometheus.MustRegister(entriesTotal)
	prometheus.MustRegister(exitsTotal)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(accountEquity)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(tickDuration)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct{}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func RecordSignal(symbol, direction string) {
	signalsTotal.WithLabelValues(symbol, direction).Inc()
}

func RecordVeto() {
	vetoesTotal.Inc()
}

func RecordEntry(underlying string) {
	entriesTotal.WithLabelValues(underlying).Inc()
}

func RecordExit(reason string, pnl float64) {
	exitsTotal.WithLabelValues(reason).Inc()
	realizedPnL.Add(pnl)
}

func SetOpenPositions(n int) {
	openPositions.Set(float64(n))
}

func SetAccountEquity(equity float64) {
	accountEquity.Set(equity)
}

func ObserveTick(seconds float64) {
	tickDuration.Observe(seconds)
}

func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
