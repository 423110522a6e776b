package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes the round trips of a Client.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fellowship",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API requests by method, resource and status code (0: unreachable).",
		}, []string{"method", "resource", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fellowship",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API round trip durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(cl call, code int, d time.Duration) {
	if m == nil {
		return
	}
	resource := cl.op
	if i := strings.IndexByte(resource, '.'); i > 0 {
		resource = resource[:i]
	}
	method := string(cl.method)
	m.requests.WithLabelValues(method, resource, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, resource).Observe(d.Seconds())
}
