package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "twcrawler"

// Recorder holds every crawl metric on its own registry. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimits      *prometheus.CounterVec
	cooldown        prometheus.Counter
	providerErrors  *prometheus.CounterVec
	expanded        prometheus.Counter
	survivors       prometheus.Counter
	reexpanded      prometheus.Counter
	frontier        prometheus.Gauge
}

// New creates a Recorder and registers its collectors
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Provider API requests by endpoint and HTTP status",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Provider API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Rate-limit signals received, by endpoint",
		}, []string{"endpoint"}),
		cooldown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_seconds_total",
			Help:      "Time spent suspended after rate-limit signals",
		}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Non rate-limit provider errors by crawl stage and error type",
		}, []string{"stage", "type"}),
		expanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expanded_total",
			Help:      "Frontier ids expanded (one output record each)",
		}),
		survivors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "survivors_total",
			Help:      "Followers under the popularity threshold appended to the frontier",
		}),
		reexpanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reexpanded_total",
			Help:      "Expansions of an id that had already been expanded in this run",
		}),
		frontier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_size",
			Help:      "Ids waiting in the frontier",
		}),
	}

	r.registry.MustRegister(
		r.requests,
		r.requestDuration,
		r.rateLimits,
		r.cooldown,
		r.providerErrors,
		r.expanded,
		r.survivors,
		r.reexpanded,
		r.frontier,
	)
	return r
}

// Registry exposes the underlying registry for the HTTP handler and tests
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRequest records one API round trip. Status 0 means a transport failure.
func (r *Recorder) ObserveRequest(endpoint string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) RateLimited(endpoint string, cooldown time.Duration) {
	if r == nil {
		return
	}
	r.rateLimits.WithLabelValues(endpoint).Inc()
	r.cooldown.Add(cooldown.Seconds())
}

func (r *Recorder) ProviderError(stage, errorType string) {
	if r == nil {
		return
	}
	r.providerErrors.WithLabelValues(stage, errorType).Inc()
}

// Expanded records one written record and the survivors it carried
func (r *Recorder) Expanded(survivors int) {
	if r == nil {
		return
	}
	r.expanded.Inc()
	r.survivors.Add(float64(survivors))
}

func (r *Recorder) Reexpanded() {
	if r == nil {
		return
	}
	r.reexpanded.Inc()
}

func (r *Recorder) SetFrontier(n int) {
	if r == nil {
		return
	}
	r.frontier.Set(float64(n))
}
