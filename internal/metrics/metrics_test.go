package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.AdmissionDecided("accepted")
	m.AdmissionDecided("accepted")
	m.AdmissionDecided("weekly quota exceeded")
	m.NotificationSent("dropped")
	m.BackupFinished("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.admissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.admissions.WithLabelValues("weekly quota exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backups.WithLabelValues("ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodPost, "/api/appointments", http.StatusOK, 5*time.Millisecond)
	m.AdmissionDecided("accepted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `admission_decisions_total{outcome="accepted"} 1`)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AdmissionDecided("accepted")
	m.NotificationSent("sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
