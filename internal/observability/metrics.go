// Package observability exposes the service's Prometheus collectors.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogsmith_jobs_submitted_total",
		Help: "The total number of submitted blog jobs",
	})

	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_jobs_finished_total",
		Help: "The total number of blog jobs that reached a terminal state",
	}, []string{"status"}) // completed, failed

	JobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blogsmith_jobs_in_flight",
		Help: "Blog jobs currently being generated",
	})

	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blogsmith_job_duration_seconds",
		Help:    "Wall time of a full blog generation run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogsmith_stage_duration_seconds",
		Help:    "Duration of individual pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"stage"})

	Rewrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogsmith_rewrites_total",
		Help: "Drafts sent back for a rewrite by the quality gate",
	})

	ProviderFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_provider_fallbacks_total",
		Help: "Stage calls that degraded to their fallback value",
	}, []string{"stage", "reason"})

	CreditsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_credits_consumed_total",
		Help: "Credits spent on generations",
	}, []string{"source"}) // free, purchased

	CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_credits_granted_total",
		Help: "Credits added to user balances",
	}, []string{"source"}) // signup, reset, purchase, refund

	JobsCleaned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_jobs_cleaned_total",
		Help: "Jobs removed by the janitor",
	}, []string{"reason"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogsmith_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogsmith_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
