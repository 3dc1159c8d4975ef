// Package metrics exposes operational counters for the identity core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters incremented by the identity services. All
// methods are safe on a nil receiver so tests can pass nil.
type Metrics struct {
	registry              *prometheus.Registry
	registrationsAdmitted prometheus.Counter
	registrationsRejected *prometheus.CounterVec
	accountsVerified      prometheus.Counter
	duplicatesCollapsed   prometheus.Counter
	accountsReaped        prometheus.Counter
	notificationsSent     *prometheus.CounterVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrationsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_registrations_admitted_total",
			Help: "Registrations admitted by the admission controller.",
		}),
		registrationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_registrations_rejected_total",
			Help: "Registrations rejected, by reason.",
		}, []string{"reason"}),
		accountsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_accounts_verified_total",
			Help: "Accounts marked verified after OTP validation.",
		}),
		duplicatesCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_duplicate_registrations_collapsed_total",
			Help: "Superseded pending registrations removed at verification time.",
		}),
		accountsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_unverified_accounts_reaped_total",
			Help: "Stale unverified accounts removed by the reaper.",
		}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_notifications_sent_total",
			Help: "Outbound notifications, by channel.",
		}, []string{"channel"}),
	}

	m.registry.MustRegister(
		m.registrationsAdmitted,
		m.registrationsRejected,
		m.accountsVerified,
		m.duplicatesCollapsed,
		m.accountsReaped,
		m.notificationsSent,
	)

	return m
}

// Handler serves the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RegistrationAdmitted() {
	if m != nil {
		m.registrationsAdmitted.Inc()
	}
}

func (m *Metrics) RegistrationRejected(reason string) {
	if m != nil {
		m.registrationsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) AccountVerified() {
	if m != nil {
		m.accountsVerified.Inc()
	}
}

func (m *Metrics) DuplicatesCollapsed(n int) {
	if m != nil && n > 0 {
		m.duplicatesCollapsed.Add(float64(n))
	}
}

func (m *Metrics) AccountsReaped(n int64) {
	if m != nil && n > 0 {
		m.accountsReaped.Add(float64(n))
	}
}

func (m *Metrics) NotificationSent(channel string) {
	if m != nil {
		m.notificationsSent.WithLabelValues(channel).Inc()
	}
}
