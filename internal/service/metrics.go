package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth event labels.
const (
	EventRegister     = "register"
	EventLoginSuccess = "login_success"
	EventLoginFailure = "login_failure"
	EventLogout       = "logout"
	EventTokenRefresh = "token_refresh"
)

// AuthMetrics counts authentication outcomes.
type AuthMetrics struct {
	events *prometheus.CounterVec
}

// NewAuthMetrics registers auth_events_total with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	return &AuthMetrics{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by outcome",
		}, []string{"event"}),
	}
}

func (m *AuthMetrics) inc(event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event).Inc()
}
