package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bird_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion
// runs and report queries.
type Metrics struct {
	RowsRead      prometheus.Counter
	RowsRejected  *prometheus.CounterVec // labels: reason={missing_species,invalid_number}
	SheetsRead    *prometheus.CounterVec // labels: location_type={Forest,Grassland}
	RecordsLoaded prometheus.Gauge

	// Run metrics.
	RunDuration   prometheus.Histogram
	StageDuration *prometheus.HistogramVec // labels: stage={extract,normalize,consolidate,backup,load,publish}
	Runs          *prometheus.CounterVec   // labels: outcome={success,empty,error}
	LastSuccess   prometheus.Gauge

	// Report metrics.
	ReportQueries  *prometheus.CounterVec   // labels: report, outcome={success,error}
	ReportCache    *prometheus.CounterVec   // labels: result={hit,miss}
	ReportDuration *prometheus.HistogramVec // labels: report
}

var (
	runBuckets    = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
	stageBuckets  = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}
	reportBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// multiple tests can each build their own.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total non-blank sheet rows read from the workbooks.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Rows dropped during normalization by reason.",
		}, []string{"reason"}),
		SheetsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_read_total",
			Help:      "Worksheets read by location type.",
		}, []string{"location_type"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Rows in the observation table after the last successful run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete ingestion run.",
			Buckets:   runBuckets,
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each ingestion stage.",
			Buckets:   stageBuckets,
		}, []string{"stage"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome.",
		}, []string{"outcome"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful ingestion run.",
		}),
		ReportQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_queries_total",
			Help:      "Report executions by report name and outcome.",
		}, []string{"report", "outcome"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report result cache lookups by result.",
		}, []string{"result"}),
		ReportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_query_duration_seconds",
			Help:      "Report query duration in seconds.",
			Buckets:   reportBuckets,
		}, []string{"report"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsRejected,
		m.SheetsRead,
		m.RecordsLoaded,
		m.RunDuration,
		m.StageDuration,
		m.Runs,
		m.LastSuccess,
		m.ReportQueries,
		m.ReportCache,
		m.ReportDuration,
	}
}
