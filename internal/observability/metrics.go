package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ircctl"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	linesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "lines_received_total",
			Help:      "Inbound IRC lines split from transport units.",
		},
		[]string{"framing"},
	)
	parseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "parse_failures_total",
			Help:      "Inbound lines dropped because they failed to parse.",
		},
	)
	droppedFragments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "dropped_fragments_total",
			Help:      "Unterminated stream fragments dropped for exceeding the line limit.",
		},
	)
	messagesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "messages_queued_total",
			Help:      "Parsed messages handed to the consumer queue.",
		},
		[]string{"command"},
	)
	keepaliveReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "keepalive_replies_total",
			Help:      "PONG replies sent in answer to PING.",
		},
		[]string{"success"},
	)
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "messages_sent_total",
			Help:      "Outbound messages handed to the transport.",
		},
		[]string{"command", "success"},
	)
	transportFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transport_faults_total",
			Help:      "Sessions ended by a transport error.",
		},
	)
	openSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "open",
			Help:      "Sessions currently running a receive pump.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			linesReceived,
			parseFailures,
			droppedFragments,
			messagesQueued,
			keepaliveReplies,
			messagesSent,
			transportFaults,
			openSessions,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordLineReceived(framing string) {
	RegisterMetrics()
	linesReceived.WithLabelValues(framing).Inc()
}

func RecordParseFailure() {
	RegisterMetrics()
	parseFailures.Inc()
}

func RecordDroppedFragment() {
	RegisterMetrics()
	droppedFragments.Inc()
}

func RecordQueued(command string) {
	RegisterMetrics()
	messagesQueued.WithLabelValues(command).Inc()
}

func RecordKeepalive(success bool) {
	RegisterMetrics()
	keepaliveReplies.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordSent(command string, success bool) {
	RegisterMetrics()
	messagesSent.WithLabelValues(command, strconv.FormatBool(success)).Inc()
}

func RecordTransportFault() {
	RegisterMetrics()
	transportFaults.Inc()
}

func SessionOpened() {
	RegisterMetrics()
	openSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	openSessions.Dec()
}
