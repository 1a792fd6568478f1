package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric returns the first metric from c whose labels include labels.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		got := make(map[string]string, len(d.GetLabel()))
		for _, lp := range d.GetLabel() {
			got[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range labels {
			if got[k] != v {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

func newMetricsRouter(m *HTTPMetrics, status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(m.Middleware("api"))
	r.Get("/{userId}/products/{productId}", func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
		}
		_, _ = w.Write([]byte("{}"))
	})
	return r
}

func TestHTTPMetrics_CountsByRoutePattern(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	r := newMetricsRouter(m, 0)

	for _, path := range []string{"/u1/products/1", "/u2/products/2", "/u3/products/3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	metric := collectMetric(t, m.requests, map[string]string{
		"service": "api", "method": "GET", "path": "/{userId}/products/{productId}", "status": "200",
	})
	require.NotNil(t, metric)
	assert.Equal(t, float64(3), metric.GetCounter().GetValue())
}

func TestHTTPMetrics_CapturesStatusAndDuration(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	r := newMetricsRouter(m, http.StatusNotFound)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/u1/products/9", nil))

	labels := map[string]string{"status": "404"}
	require.NotNil(t, collectMetric(t, m.requests, labels))
	hist := collectMetric(t, m.duration, labels)
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetHistogram().GetSampleCount())
}

func TestHTTPMetrics_InFlightReturnsToZero(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	var during float64

	r := chi.NewRouter()
	r.Use(m.Middleware("api"))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		during = collectMetric(t, m.inFlight, map[string]string{"service": "api"}).GetGauge().GetValue()
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), collectMetric(t, m.inFlight, map[string]string{"service": "api"}).GetGauge().GetValue())
}

func TestNewHTTPMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg)
	assert.Panics(t, func() { NewHTTPMetrics(reg) })
}

// --- statusRecorder ---

type hijackableWriter struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusCreated, rec.status)
}

func TestStatusRecorder_CountsBytes(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("hello"))
	assert.Equal(t, 5, rec.bytes)
	assert.Equal(t, http.StatusOK, rec.status)
}

func TestStatusRecorder_NotDoubleWrapped(t *testing.T) {
	inner := newStatusRecorder(httptest.NewRecorder())
	assert.Same(t, inner, newStatusRecorder(inner))
}

func TestStatusRecorder_Hijack(t *testing.T) {
	hw := &hijackableWriter{ResponseRecorder: httptest.NewRecorder()}
	_, _, err := newStatusRecorder(hw).Hijack()
	require.NoError(t, err)
	assert.True(t, hw.hijacked)

	_, _, err = newStatusRecorder(httptest.NewRecorder()).Hijack()
	assert.Error(t, err)
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	assert.Same(t, inner, newStatusRecorder(inner).Unwrap())
}
