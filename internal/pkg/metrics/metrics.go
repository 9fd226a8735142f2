package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway call outcomes.
const (
	OutcomeValid         = "valid"
	OutcomeHabilitation  = "habilitation"
	OutcomeRejected      = "rejected"
	OutcomeDetail        = "detail"
	OutcomeAuth          = "auth_error"
	OutcomeBusiness      = "business_error"
	OutcomeUnrecognized  = "unrecognized"
	OutcomeTransport     = "transport_error"
	OutcomeInvalidResult = "invalid_result"
)

// Metrics groups the service collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	gatewayCalls       *prometheus.CounterVec
	gatewayDuration    *prometheus.HistogramVec
	eventTransitions   *prometheus.CounterVec
	payslipGenerations *prometheus.CounterVec
	payslipAggregates  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, alongside the Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(registry)
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edi_gateway_requests_total",
			Help: "Gateway basic_event calls by event code and outcome.",
		}, []string{"code", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edi_gateway_request_duration_seconds",
			Help:    "Gateway basic_event round-trip latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"code"}),
		eventTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radian_event_transitions_total",
			Help: "Radian event state transitions.",
		}, []string{"to"}),
		payslipGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edi_payslip_generations_total",
			Help: "EDI payslip reconciliation runs by result.",
		}, []string{"result"}),
		payslipAggregates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edi_payslip_aggregates_total",
			Help: "EDI payslip aggregates touched by reconciliation, by action.",
		}, []string{"action"}),
	}
	registry.MustRegister(
		m.gatewayCalls,
		m.gatewayDuration,
		m.eventTransitions,
		m.payslipGenerations,
		m.payslipAggregates,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveGatewayCall(code, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(code, outcome).Inc()
	m.gatewayDuration.WithLabelValues(code).Observe(elapsed.Seconds())
}

func (m *Metrics) IncEventTransition(state string) {
	if m == nil {
		return
	}
	m.eventTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) IncPayslipGeneration(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.payslipGenerations.WithLabelValues(result).Inc()
}

func (m *Metrics) AddPayslipAggregates(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.payslipAggregates.WithLabelValues(action).Add(float64(n))
}
