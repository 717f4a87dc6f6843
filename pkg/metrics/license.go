package metrics

import "github.com/prometheus/client_golang/prometheus"

// LicenseMetrics counts validation outcomes and throttled requests.
type LicenseMetrics struct {
	validations *prometheus.CounterVec
	blocked     *prometheus.CounterVec
}

// NewLicenseMetrics registers the license metrics on the provided registerer.
func NewLicenseMetrics(reg prometheus.Registerer) *LicenseMetrics {
	if reg == nil {
		return &LicenseMetrics{}
	}
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_validations_total",
		Help: "License validation attempts by outcome.",
	}, []string{"outcome"})
	blocked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_blocked_total",
		Help: "Requests rejected by the rate guard, by policy.",
	}, []string{"policy"})
	reg.MustRegister(validations, blocked)
	return &LicenseMetrics{
		validations: validations,
		blocked:     blocked,
	}
}

// IncValidation counts one validation attempt with the given outcome.
func (m *LicenseMetrics) IncValidation(outcome string) {
	if m == nil || m.validations == nil {
		return
	}
	m.validations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBlocked counts one request rejected under policy.
func (m *LicenseMetrics) IncBlocked(policy string) {
	if m == nil || m.blocked == nil {
		return
	}
	m.blocked.WithLabelValues(normalizeLabel(policy)).Inc()
}
