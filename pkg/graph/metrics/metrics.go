package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})

	// Extraction metrics
	ExtractionMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extraction_mode",
			Help: "Extraction strategy selected at startup (1 for the active mode)",
		},
		[]string{"mode"},
	)

	TaggerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_tagger_failures_total",
			Help: "Paragraphs the tagger failed to analyze",
		},
		[]string{"reason"},
	)

	// Ingestion metrics
	DocumentConversionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_conversion_errors_total",
			Help: "Total number of document conversion errors",
		},
		[]string{"format"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_sink_errors_total",
			Help: "Failures while persisting a structured document",
		},
		[]string{"sink"},
	)

	// Graph metrics
	GraphNodeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_nodes_total",
			Help: "Total number of nodes in the merged graph",
		},
		[]string{"node_type"},
	)

	GraphEdgeCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graph_edges_total",
			Help: "Total number of edges in the merged graph",
		},
		[]string{"edge_type"},
	)

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Number of embedding requests",
		},
		[]string{"status"},
	)

	TruncatedInputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embedding_truncated_inputs_total",
		Help: "Embedding inputs cut to the model token budget",
	})
)

// SetExtractionMode marks mode as the active strategy.
func SetExtractionMode(mode string) {
	ExtractionMode.Reset()
	ExtractionMode.WithLabelValues(mode).Set(1)
}

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// RecordGraph publishes node and edge counts per type for a merged graph.
func RecordGraph(nodeTypes, edgeTypes map[string]int) {
	GraphNodeCount.Reset()
	for t, n := range nodeTypes {
		GraphNodeCount.WithLabelValues(t).Set(float64(n))
	}
	GraphEdgeCount.Reset()
	for t, n := range edgeTypes {
		GraphEdgeCount.WithLabelValues(t).Set(float64(n))
	}
}
