package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xhrcomm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "channel",
			Name:      "exchanges_total",
			Help:      "Completed client exchanges by outcome.",
		},
		[]string{"namespace", "outcome"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xhrcomm",
			Subsystem: "channel",
			Name:      "exchange_duration_seconds",
			Help:      "Client exchange round trip in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"namespace", "outcome"},
	)
	exchangeItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "channel",
			Name:      "items_total",
			Help:      "Tasks sent and events received by client channels.",
		},
		[]string{"namespace", "direction"},
	)
	pollInterval = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "xhrcomm",
			Subsystem: "channel",
			Name:      "poll_interval_seconds",
			Help:      "Current heartbeat interval per channel namespace.",
		},
		[]string{"namespace"},
	)
	dispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "channel",
			Name:      "dispatch_failures_total",
			Help:      "Handler failures while dispatching events.",
		},
		[]string{"namespace", "event"},
	)
	liveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "xhrcomm",
			Subsystem: "server",
			Name:      "sessions",
			Help:      "Live server-side poll sessions.",
		},
		[]string{"node"},
	)
	serverTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "server",
			Name:      "tasks_total",
			Help:      "Tasks received by the server, by handling result.",
		},
		[]string{"node", "result"},
	)
	serverPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "server",
			Name:      "polls_total",
			Help:      "Accepted polls by whether they opened a session.",
		},
		[]string{"node", "session"},
	)
	serverItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xhrcomm",
			Subsystem: "server",
			Name:      "items_total",
			Help:      "Tasks received and events pushed by the server.",
		},
		[]string{"node", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			exchanges, exchangeDuration, exchangeItems, pollInterval, dispatchFailures,
			liveSessions, serverTasks, serverPolls, serverItems,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordExchange(namespace, outcome string, duration time.Duration, tasks, events int) {
	RegisterMetrics()
	exchanges.WithLabelValues(namespace, outcome).Inc()
	exchangeDuration.WithLabelValues(namespace, outcome).Observe(duration.Seconds())
	exchangeItems.WithLabelValues(namespace, "out").Add(float64(tasks))
	exchangeItems.WithLabelValues(namespace, "in").Add(float64(events))
}

func SetPollInterval(namespace string, interval time.Duration) {
	RegisterMetrics()
	pollInterval.WithLabelValues(namespace).Set(interval.Seconds())
}

func RecordDispatchFailure(namespace, event string) {
	RegisterMetrics()
	dispatchFailures.WithLabelValues(namespace, event).Inc()
}

func SetLiveSessions(node string, n int) {
	RegisterMetrics()
	liveSessions.WithLabelValues(node).Set(float64(n))
}

func RecordServerTask(node, result string) {
	RegisterMetrics()
	serverTasks.WithLabelValues(node, result).Inc()
}

func RecordPoll(node string, opened bool, tasks, events int) {
	RegisterMetrics()
	session := "resumed"
	if opened {
		session = "opened"
	}
	serverPolls.WithLabelValues(node, session).Inc()
	serverItems.WithLabelValues(node, "in").Add(float64(tasks))
	serverItems.WithLabelValues(node, "out").Add(float64(events))
}
