package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest and aggregation runs.
type Metrics struct {
	// Ingest metrics.
	ListingsFetched  *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration    prometheus.Histogram
	LinesParsed      prometheus.Counter
	LinesSkipped     prometheus.Counter
	RecordsWritten   prometheus.Counter
	RecordsPublished prometheus.Counter

	// Aggregation metrics.
	CatalogFilesLoaded prometheus.Counter
	CatalogCache       *prometheus.CounterVec // labels: result={hit,miss}
	RowsAggregated     prometheus.Counter
	RowsDropped        *prometheus.CounterVec // labels: reason={region,timestamp,magnitude,latitude,longitude,depth_km}
	DerivedRows        *prometheus.GaugeVec   // labels: profile

	RunDuration *prometheus.HistogramVec // labels: stage={ingest,aggregate}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewUnregisteredMetrics()
	prometheus.MustRegister(
		m.ListingsFetched,
		m.FetchDuration,
		m.LinesParsed,
		m.LinesSkipped,
		m.RecordsWritten,
		m.RecordsPublished,
		m.CatalogFilesLoaded,
		m.CatalogCache,
		m.RowsAggregated,
		m.RowsDropped,
		m.DerivedRows,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

// NewUnregisteredMetrics creates Metrics that no registry exports, for
// one-shot tools that reuse the pipeline packages.
func NewUnregisteredMetrics() *Metrics {
	return &Metrics{
		ListingsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_fetched_total",
			Help:      "Daily listing pages requested from JMA by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a listing page request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LinesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_parsed_total",
			Help:      "Listing lines that matched the hypocenter grammar.",
		}),
		LinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Non-blank listing lines that did not match the grammar.",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records written to catalog files.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Records published to the Kafka topic.",
		}),
		CatalogFilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_files_loaded_total",
			Help:      "Catalog files read during aggregation.",
		}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog file cache lookups by result.",
		}, []string{"result"}),
		RowsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_aggregated_total",
			Help:      "Catalog rows concatenated before filtering.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Catalog rows left out of the derived table by reason.",
		}, []string{"reason"}),
		DerivedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "derived_rows",
			Help:      "Rows in the most recent derived table per profile.",
		}, []string{"profile"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
}
