package metrics

import "github.com/prometheus/client_golang/prometheus"

// ImportMetrics holds Prometheus metrics for the dataset import pipeline.
type ImportMetrics struct {
	ImportsTotal   *prometheus.CounterVec
	RowsProcessed  *prometheus.CounterVec
	LabelsAssigned *prometheus.CounterVec
	ImportDuration prometheus.Histogram
	DatasetsPurged prometheus.Counter
}

// NewImportMetrics creates and registers import metrics on the given registry.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		ImportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "datasets_total",
			Help:      "Total number of dataset imports, by result.",
		}, []string{"result"}),
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of data rows read, by outcome.",
		}, []string{"outcome"}),
		LabelsAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "labels_total",
			Help:      "Total number of labels assigned, by label and source.",
		}, []string{"label", "source"}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of dataset imports in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "datasets_deleted_total",
			Help:      "Total number of datasets deleted by the retention job.",
		}),
	}

	reg.MustRegister(m.ImportsTotal, m.RowsProcessed, m.LabelsAssigned, m.ImportDuration, m.DatasetsPurged)
	return m
}
