// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"copycorner/internal/apperror"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Transitions      *prometheus.CounterVec
	RenumberFailures *prometheus.CounterVec
	StockAdjustments *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copycorner",
			Name:      "lifecycle_transitions_total",
			Help:      "Archive, restore and purge attempts by kind and outcome.",
		}, []string{"kind", "operation", "outcome"}),
		RenumberFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copycorner",
			Name:      "renumber_failures_total",
			Help:      "Best-effort renumber passes that failed after a committed transition.",
		}, []string{"kind"}),
		StockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copycorner",
			Name:      "stock_adjustments_total",
			Help:      "Units moved in or out of stock.",
		}, []string{"direction"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "copycorner",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.Transitions, m.RenumberFailures, m.StockAdjustments, m.HTTPDuration)
	return m
}

// Outcome labels an operation result: "ok" or the error kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := apperror.As(err); ok {
		return string(e.Kind)
	}
	return string(apperror.KindUnexpected)
}

func (m *Metrics) ObserveTransition(kind, operation string, err error) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind, operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveRenumberFailure(kind string) {
	if m == nil {
		return
	}
	m.RenumberFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveStock(direction string, qty int) {
	if m == nil || qty <= 0 {
		return
	}
	m.StockAdjustments.WithLabelValues(direction).Add(float64(qty))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
