package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HubStats reports live-stream fan-out counters.
type HubStats interface {
	Stats() (subscribers int, dropped uint64)
}

var requestLabels = []string{"method", "path", "status"}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	inFlight prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, requestLabels),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, requestLabels),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests currently being served",
		}),
	}
	reg.MustRegister(m.duration, m.total, m.inFlight)
	return m
}

func registerHubStats(reg prometheus.Registerer, hub HubStats) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mentorship_stream_subscribers",
			Help: "Open live message stream connections",
		}, func() float64 {
			subs, _ := hub.Stats()
			return float64(subs)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "mentorship_stream_dropped_events_total",
			Help: "Events dropped because a subscriber outbox was full",
		}, func() float64 {
			_, dropped := hub.Stats()
			return float64(dropped)
		}),
	)
}

// routeLabel keeps label cardinality bounded: matched requests report the
// route template, anything else (404s) the raw path.
func routeLabel(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// statusClass folds a status code into "1xx".."5xx".
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// AttachMetrics gives app its own Prometheus registry, times every request
// and serves the registry on /metrics. Hub counters are exported when hub
// is not nil.
func AttachMetrics(app *fiber.App, hub HubStats) {
	reg := prometheus.NewRegistry()
	m := newHTTPMetrics(reg)
	if hub != nil {
		registerHubStats(reg, hub)
	}

	app.Use(func(c *fiber.Ctx) error {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		err := c.Next()

		labels := prometheus.Labels{
			"method": c.Method(),
			"path":   routeLabel(c),
			"status": statusClass(c.Response().StatusCode()),
		}
		m.duration.With(labels).Observe(time.Since(start).Seconds())
		m.total.With(labels).Inc()
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}
