// Package metrics exposes Prometheus collectors for HTTP traffic, routing
// decisions and reminder jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadops"

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry         *prometheus.Registry
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	routingDecisions *prometheus.CounterVec
	reminderSends    *prometheus.CounterVec
}

// New constructs a collector with default histograms/counters.
func New() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "route", "status"})

	routingDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "decisions_total",
		Help:      "Lead routing decisions by reason and assignee.",
	}, []string{"reason", "assigned_to"})

	reminderSends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminders",
		Name:      "sends_total",
		Help:      "Reminder delivery attempts by job and outcome.",
	}, []string{"job", "outcome"})

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, routingDecisions, reminderSends} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:         registry,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		routingDecisions: routingDecisions,
		reminderSends:    reminderSends,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the matched route
// template, so path parameters do not explode label cardinality.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		c.requestTotal.WithLabelValues(ctx.Request.Method, route, status).Inc()
		c.requestDuration.WithLabelValues(ctx.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveRouting counts one routing decision. Safe on a nil collector.
func (c *Collector) ObserveRouting(reason, assignedTo string) {
	if c == nil {
		return
	}
	c.routingDecisions.WithLabelValues(reason, assignedTo).Inc()
}

// ObserveReminder counts one reminder attempt. Safe on a nil collector.
func (c *Collector) ObserveReminder(job string, ok bool) {
	if c == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	c.reminderSends.WithLabelValues(job, outcome).Inc()
}
