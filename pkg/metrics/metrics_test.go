package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReport(t *testing.T) {
	m := NewManager()

	m.ObserveReport("monthly", time.Now(), nil)
	m.ObserveReport("monthly", time.Now(), nil)
	m.ObserveReport("monthly", time.Now(), errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reportsComputed.WithLabelValues("monthly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportErrors.WithLabelValues("monthly")))
}

func TestObserveMessage(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.ObserveMessage("payroll", "retried")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("payroll", "retried")))
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager

	assert.NotPanics(t, func() {
		m.ObserveReport("monthly", time.Now(), nil)
		m.ObserveMessage("email", "processed")
		m.ObserveRequest("/health", "200")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager()
	m.ObserveRequest("/api/v1/health", "200")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fichaje_http_requests_total{code="200",route="/api/v1/health"} 1`)
}
