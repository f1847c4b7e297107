package metrics

import (
	"errors"
	"testing"

	"copycorner/internal/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "InvalidState", Outcome(apperror.InvalidState("nope")))
	assert.Equal(t, "Unexpected", Outcome(errors.New("db down")))
}

func TestObservers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("product", "archive", nil)
	m.ObserveTransition("product", "archive", nil)
	m.ObserveRenumberFailure("product")
	m.ObserveStock("OUT", 4)
	m.ObserveStock("OUT", 0)
	m.ObserveHTTP("GET", "/api/products", 200, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("product", "archive", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenumberFailures.WithLabelValues("product")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.StockAdjustments.WithLabelValues("OUT")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("product", "archive", nil)
		m.ObserveRenumberFailure("product")
		m.ObserveStock("IN", 1)
		m.ObserveHTTP("GET", "/", 200, 0)
	})
}
