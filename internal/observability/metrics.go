package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "banditd"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors exported on /metrics. Collectors are
// registered on the Registerer passed to NewMetrics so tests can use an
// isolated registry.
type Metrics struct {
	// OperationsTotal counts façade operations.
	// Labels: kind (bandit, optimizer), op, outcome (ok, error)
	OperationsTotal *prometheus.CounterVec

	// OperationDurationSeconds measures façade latency, lock wait included.
	// Labels: kind, op
	OperationDurationSeconds *prometheus.HistogramVec

	// Instances tracks live registry entries.
	// Labels: kind
	Instances *prometheus.GaugeVec

	// ExpiredTotal counts entries removed by the idle sweeper.
	// Labels: kind
	ExpiredTotal *prometheus.CounterVec

	// JournalErrorsTotal counts journal appends that failed after an
	// operation had already been applied.
	JournalErrorsTotal prometheus.Counter

	// HTTPRequestsTotal counts handled requests.
	// Labels: method, route, status
	HTTPRequestsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "operations_total",
				Help:      "Total instance operations by kind, operation and outcome",
			},
			[]string{"kind", "op", "outcome"},
		),
		OperationDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Instance operation latency in seconds",
				Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"kind", "op"},
		),
		Instances: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "instances",
				Help:      "Number of live instances by kind",
			},
			[]string{"kind"},
		),
		ExpiredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "expired_total",
				Help:      "Total instances removed by the idle sweeper",
			},
			[]string{"kind"},
		),
		JournalErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "journal_errors_total",
				Help:      "Total journal appends that failed",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.OperationsTotal,
			m.OperationDurationSeconds,
			m.Instances,
			m.ExpiredTotal,
			m.JournalErrorsTotal,
			m.HTTPRequestsTotal,
		)
	}
	return m
}

func (m *Metrics) ObserveOperation(kind, op string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.OperationsTotal.WithLabelValues(kind, op, outcome).Inc()
	m.OperationDurationSeconds.WithLabelValues(kind, op).Observe(seconds)
}

func (m *Metrics) SetInstances(kind string, n int) {
	if m == nil {
		return
	}
	m.Instances.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) AddExpired(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ExpiredTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) JournalError() {
	if m == nil {
		return
	}
	m.JournalErrorsTotal.Inc()
}
