package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poinapi", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "path", "code"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "poinapi", Name: "handler_errors_total", Help: "Handler errors",
	})
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poinapi", Name: "record_transitions_total", Help: "Approval engine transitions",
	}, []string{"event", "outcome"})
	NotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "poinapi", Name: "notify_failures_total", Help: "Dropped notification inserts",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poinapi", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, Transitions, NotifyFailures, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
