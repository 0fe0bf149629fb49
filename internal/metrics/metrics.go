// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records session, onboarding and HTTP metrics
type Collector struct {
	authAttempts  *prometheus.CounterVec
	profileFetch  *prometheus.CounterVec
	wizardSubmits *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upgradify_auth_attempts_total",
			Help: "Identity operations by method and outcome",
		}, []string{"method", "outcome"}),
		profileFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upgradify_profile_fetch_total",
			Help: "Profile fetches triggered by identity changes, by outcome",
		}, []string{"outcome"}),
		wizardSubmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upgradify_onboarding_submissions_total",
			Help: "Onboarding wizard submissions by step and outcome",
		}, []string{"step", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upgradify_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upgradify_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.profileFetch,
		c.wizardSubmits,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// AuthAttempt records a signup, login, federated login or logout outcome
func (c *Collector) AuthAttempt(method, outcome string) {
	c.authAttempts.WithLabelValues(method, outcome).Inc()
}

// ProfileFetch records the outcome of a background profile fetch
func (c *Collector) ProfileFetch(outcome string) {
	c.profileFetch.WithLabelValues(outcome).Inc()
}

// WizardSubmission records an onboarding step submission
func (c *Collector) WizardSubmission(step, outcome string) {
	c.wizardSubmits.WithLabelValues(step, outcome).Inc()
}

// RecordHTTPRequest records a served request
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
