package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grade_computations_total",
			Help: "Total number of grade computations",
		},
		[]string{"mode"},
	)

	FinalPercentHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grade_final_percent",
			Help:    "Distribution of computed final percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"course"},
	)

	PageCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grades_page_cache_lookups_total",
			Help: "Parsed grades page cache lookups",
		},
		[]string{"result"},
	)

	SettingsOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_settings_operations_total",
			Help: "Course settings store operations",
		},
		[]string{"op", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

// ObserveSettingsOp records the outcome of a settings store call.
func ObserveSettingsOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SettingsOperations.WithLabelValues(op, status).Inc()
}
