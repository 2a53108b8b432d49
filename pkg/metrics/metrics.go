package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of ledger mutations.
const (
	OutcomeCreated  = "created"
	OutcomeApplied  = "applied"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

// Collector owns every metric the service exports. A nil *Collector is valid
// and records nothing.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingsTotal          *prometheus.CounterVec
	StatusTransitionsTotal *prometheus.CounterVec
	ReschedulesTotal       *prometheus.CounterVec
	SlotsGenerated         prometheus.Histogram

	EventsPublishedTotal *prometheus.CounterVec
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),

		StatusTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Status change attempts by target status and outcome.",
		}, []string{"to", "outcome"}),

		ReschedulesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "appointments",
			Name:      "reschedules_total",
			Help:      "Reschedule attempts by outcome.",
		}, []string{"outcome"}),

		SlotsGenerated: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "appointments",
			Name:      "slots_generated",
			Help:      "Number of slots produced per availability query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),

		EventsPublishedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the broker by type and result.",
		}, []string{"type", "result"}),
	}
}

func (c *Collector) ObserveBooking(outcome string) {
	if c == nil {
		return
	}
	c.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveTransition(to, outcome string) {
	if c == nil {
		return
	}
	c.StatusTransitionsTotal.WithLabelValues(to, outcome).Inc()
}

func (c *Collector) ObserveReschedule(outcome string) {
	if c == nil {
		return
	}
	c.ReschedulesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveSlots(n int) {
	if c == nil {
		return
	}
	c.SlotsGenerated.Observe(float64(n))
}

func (c *Collector) ObserveEvent(eventType string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	c.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

func (c *Collector) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	route := RouteLabel(path)
	code := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(method, route, code).Inc()
	c.RequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var objectIDSegment = regexp.MustCompile(`/[0-9a-fA-F]{24}(/|$)`)

// RouteLabel collapses document ids in a path so the label stays low-cardinality.
func RouteLabel(path string) string {
	for objectIDSegment.MatchString(path) {
		path = objectIDSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
