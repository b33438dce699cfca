package m3u8

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindPlaylist = "playlist"
	kindSegment  = "segment"
)

var (
	fetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m3u8audio",
			Name:      "fetch_attempts_total",
			Help:      "Total number of HTTP fetch attempts",
		},
		[]string{"kind", "status_class"},
	)
	fetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m3u8audio",
			Name:      "fetch_retries_total",
			Help:      "Number of fetch retries performed",
		},
		[]string{"kind"},
	)
	fetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "m3u8audio",
			Name:      "fetch_failures_total",
			Help:      "Number of fetches that exhausted their retry budget",
		},
		[]string{"kind"},
	)
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "m3u8audio",
			Name:      "fetch_attempt_duration_seconds",
			Help:      "Duration of single fetch attempts",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2.0, 10),
		},
		[]string{"kind"},
	)
	segmentBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "m3u8audio",
			Name:      "segment_bytes_total",
			Help:      "Bytes written to segment files",
		},
	)
)

func statusClass(err error, status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case err != nil:
		return "error"
	}
	return "unknown"
}

func recordAttempt(kind string, status int, d time.Duration, err error) {
	fetchAttempts.WithLabelValues(kind, statusClass(err, status)).Inc()
	fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// WriteMetrics writes the fetch metrics in Prometheus text format to path
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
