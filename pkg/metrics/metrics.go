package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Upload pipeline metrics
	UploadsIngested prometheus.Counter
	UploadRows      prometheus.Histogram
	JobsCreated     *prometheus.CounterVec
	JobsCancelled   prometheus.Counter

	// Export metrics
	ReportFallbacks *prometheus.CounterVec
	ExportRows      prometheus.Counter

	// API client metrics
	APIRequests *prometheus.CounterVec
	APIRetries  *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Row cache metrics
	CacheRefreshes prometheus.Counter
	CacheMisses    prometheus.Counter
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UploadsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_ingested_total",
			Help:      "Total number of CSV uploads staged in object storage",
		}),
		UploadRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_rows",
			Help:      "Row counts of ingested CSV uploads",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		JobsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Total number of jobs created from uploads",
		}, []string{"template_type"}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_cancelled_total",
			Help:      "Total number of jobs cancelled",
		}),
		ReportFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_fallbacks_total",
			Help:      "Prebuilt report misses served as headers-only CSV",
		}, []string{"window"}),
		ExportRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_rows_total",
			Help:      "Total number of notification rows streamed to CSV exports",
		}),
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of notifications-api requests",
		}, []string{"operation", "status"}),
		APIRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retry_attempts_total",
			Help:      "Total number of retried notifications-api requests",
		}, []string{"operation"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of notifications-api requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		CacheRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_cache_refreshes_total",
			Help:      "Row cache repopulations from object storage",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_cache_misses_total",
			Help:      "Row cache lookups that found no cached row",
		}),
	}
}
