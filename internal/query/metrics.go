package query

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ydb-platform/docbridge/internal/where"
)

// Parts of Prometheus metric names.
const (
	namespace = "docbridge"
	subsystem = "query"
)

// Metrics counts executed chains.
type Metrics struct {
	plans        *prometheus.CounterVec
	postFiltered prometheus.Counter
}

// NewMetrics creates chain metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plans_total",
				Help:      "The number of executed queries by plan strategy.",
			},
			[]string{"strategy"},
		),
		postFiltered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "post_filtered_total",
				Help:      "The number of documents dropped by post-filtering.",
			},
		),
	}
}

// DefaultMetrics are used by chains created with [New].
var DefaultMetrics = NewMetrics()

func (m *Metrics) observePlan(s where.Strategy) {
	m.plans.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) observePostFiltered(n int) {
	m.postFiltered.Add(float64(n))
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.plans.Describe(ch)
	m.postFiltered.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.plans.Collect(ch)
	m.postFiltered.Collect(ch)
}

// check interfaces
var (
	_ prometheus.Collector = (*Metrics)(nil)
)
