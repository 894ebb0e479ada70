package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitorMiddleware_LabelsByRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	r.HandleFunc("/challenges/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	for _, id := range []string{"a1", "b2"} {
		req := httptest.NewRequest(http.MethodGet, "/challenges/"+id, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	// Two different ids collapse into one template series
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(
		"/challenges/{id}", http.MethodGet, http.StatusText(http.StatusOK)))
	assert.Equal(t, 2.0, got)
}

func TestMonitorMiddleware_CountsAuthRejections(t *testing.T) {
	handler := MonitorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	before := testutil.ToFloat64(authRejections.WithLabelValues("401_unauthorized"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(authRejections.WithLabelValues("401_unauthorized"))
	assert.Equal(t, before+1, after)
}

func TestBasicAuthMiddleware(t *testing.T) {
	t.Setenv("METRICS_USER", "metrics")
	t.Setenv("METRICS_PASS", "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	BasicAuthMiddleware(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("metrics", "wrong")
	rr = httptest.NewRecorder()
	BasicAuthMiddleware(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("metrics", "s3cret")
	rr = httptest.NewRecorder()
	BasicAuthMiddleware(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBasicAuthMiddleware_UnconfiguredDeniesAll(t *testing.T) {
	t.Setenv("METRICS_USER", "")
	t.Setenv("METRICS_PASS", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rr := httptest.NewRecorder()
	BasicAuthMiddleware(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPprofSecurityMiddleware_UnconfiguredDeniesAll(t *testing.T) {
	t.Setenv("PPROF_SECRET", "")

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rr := httptest.NewRecorder()
	PprofSecurityMiddleware(okHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
