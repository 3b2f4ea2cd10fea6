// Package observability holds the business-level Prometheus metrics recorded
// by the service layer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_login_duration_seconds",
			Help:    "Login duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	registrationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registration_total",
			Help: "Total number of registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	tokenRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_token_refresh_total",
			Help: "Total number of successful token refreshes",
		},
	)

	passwordChangeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_password_change_total",
			Help: "Total number of successful password changes",
		},
	)

	passwordResetTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_password_reset_total",
			Help: "Total number of password reset flow operations by stage",
		},
		[]string{"stage"},
	)

	profileUpdateTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "user_profile_update_total",
			Help: "Total number of applied profile updates",
		},
	)

	userDeletionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "user_deletion_total",
			Help: "Total number of deleted user accounts",
		},
	)

	addressOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_address_operations_total",
			Help: "Total number of address operations by kind",
		},
		[]string{"operation"},
	)
)

// Metrics records business events. A single shared instance is wired into
// the services; methods are safe for concurrent use.
type Metrics struct{}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) LoginSucceeded(duration time.Duration) {
	loginTotal.WithLabelValues("success").Inc()
	loginDuration.Observe(duration.Seconds())
}

func (m *Metrics) LoginFailed(duration time.Duration) {
	loginTotal.WithLabelValues("failure").Inc()
	loginDuration.Observe(duration.Seconds())
}

func (m *Metrics) RegistrationSucceeded() {
	registrationTotal.WithLabelValues("success").Inc()
}

func (m *Metrics) RegistrationFailed() {
	registrationTotal.WithLabelValues("failure").Inc()
}

func (m *Metrics) TokenRefreshed() {
	tokenRefreshTotal.Inc()
}

func (m *Metrics) PasswordChanged() {
	passwordChangeTotal.Inc()
}

func (m *Metrics) PasswordResetRequested() {
	passwordResetTotal.WithLabelValues("requested").Inc()
}

func (m *Metrics) PasswordResetConfirmed() {
	passwordResetTotal.WithLabelValues("confirmed").Inc()
}

func (m *Metrics) ProfileUpdated() {
	profileUpdateTotal.Inc()
}

func (m *Metrics) UserDeleted() {
	userDeletionTotal.Inc()
}

func (m *Metrics) AddressCreated() {
	addressOpsTotal.WithLabelValues("created").Inc()
}

func (m *Metrics) AddressUpdated() {
	addressOpsTotal.WithLabelValues("updated").Inc()
}

func (m *Metrics) AddressDeleted() {
	addressOpsTotal.WithLabelValues("deleted").Inc()
}

func (m *Metrics) DefaultAddressChanged() {
	addressOpsTotal.WithLabelValues("default_changed").Inc()
}
