package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 指标
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// 业务指标
var (
	moderationChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_checks_total",
			Help: "Moderation gate verdicts by deciding source",
		},
		[]string{"source", "flagged"},
	)

	likeTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "like_toggles_total",
			Help: "Like toggles by resulting state",
		},
		[]string{"result"},
	)

	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Messages persisted to conversations",
		},
	)

	realtimePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_publish_total",
			Help: "Realtime relay publishes",
		},
		[]string{"status"},
	)

	notificationTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_tasks_total",
			Help: "Push notification tasks by outcome",
		},
		[]string{"status"},
	)

	recipeTranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_translations_total",
			Help: "Recipe translation requests by source",
		},
		[]string{"source"},
	)

	printOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "print_orders_total",
			Help: "Print order state transitions",
		},
		[]string{"channel", "status"},
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	if endpoint == "" {
		endpoint = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCategory(status)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordModeration source 为 classifier / keyword / none
func RecordModeration(source string, flagged bool) {
	moderationChecksTotal.WithLabelValues(source, strconv.FormatBool(flagged)).Inc()
}

func RecordLikeToggle(liked bool) {
	result := "unliked"
	if liked {
		result = "liked"
	}
	likeTogglesTotal.WithLabelValues(result).Inc()
}

func RecordMessageSent() {
	messagesSentTotal.Inc()
}

func RecordRealtimePublish(ok bool) {
	realtimePublishTotal.WithLabelValues(okLabel(ok)).Inc()
}

// RecordNotification status 为 sent / retry / dropped
func RecordNotification(status string) {
	notificationTasksTotal.WithLabelValues(status).Inc()
}

// RecordTranslation source 为 stored / translated
func RecordTranslation(source string) {
	recipeTranslationsTotal.WithLabelValues(source).Inc()
}

// RecordPrintOrder status 为 created / paid / cancelled
func RecordPrintOrder(channel, status string) {
	printOrdersTotal.WithLabelValues(channel, status).Inc()
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// statusCategory 获取状态分类
func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
