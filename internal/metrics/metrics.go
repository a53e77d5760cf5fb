package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Transparent and explicit token refreshes by result.",
		},
		[]string{"result"},
	)

	authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_gate_failures_total",
			Help: "Authentication/authorization gate failures by error code.",
		},
		[]string{"code"},
	)
)

// Init registers the auth metrics in the default registry. Call once at
// startup.
func Init() {
	prometheus.MustRegister(loginAttempts, tokenRefreshes, authFailures)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func LoginAttempt(result string) { loginAttempts.WithLabelValues(result).Inc() }
func TokenRefresh(result string) { tokenRefreshes.WithLabelValues(result).Inc() }
func AuthFailure(code string)    { authFailures.WithLabelValues(code).Inc() }
