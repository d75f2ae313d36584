package metrics

import (
	"errors"
	"strconv"
	"time"

	"financebot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financebot_http_requests_total",
		Help: "HTTP requests served, by route and status code",
	}, []string{"method", "route", "status"})
	httpDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "financebot_http_request_seconds",
		Help:    "Time spent serving HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	turnsRecordedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financebot_chat_turns_total",
		Help: "Chat turns submitted to the store, by outcome (session_created, message_stored, skipped)",
	}, []string{"outcome"})
	advisorRequestsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "financebot_advisor_requests_total",
		Help: "Advisory proxy calls, by mode (stream, external) and result (ok, error)",
	}, []string{"mode", "result"})
	advisorDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "financebot_advisor_seconds",
		Help:    "Wall time of advisory proxy calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"mode"})
	feedConnectionsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "financebot_turn_feed_connections",
		Help: "Open websocket connections on the turn feed",
	})
)

const (
	OutcomeSessionCreated = "session_created"
	OutcomeMessageStored  = "message_stored"
	OutcomeSkipped        = "skipped"

	ModeStream   = "stream"
	ModeExternal = "external"
)

// Middleware records count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		route := c.Route().Path
		httpRequestsMetric.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDurationMetric.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// statusOf mirrors the status the app's ErrorHandler will render for err,
// which only runs once the whole middleware chain has returned.
func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperror.From(err).StatusCode
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func TurnRecorded(outcome string) {
	turnsRecordedMetric.WithLabelValues(outcome).Inc()
}

func AdvisorCall(mode string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	advisorRequestsMetric.WithLabelValues(mode, result).Inc()
	advisorDurationMetric.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

func FeedConnected()    { feedConnectionsMetric.Inc() }
func FeedDisconnected() { feedConnectionsMetric.Dec() }
