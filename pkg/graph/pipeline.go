package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	pipelineProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_processing_duration_seconds",
			Help: "Time spent structuring documents in pipeline",
		},
		[]string{"mode"},
	)

	documentProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_documents_processed_total",
			Help: "Total number of documents processed",
		},
		[]string{"status"},
	)

	entitiesExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_entities_extracted_total",
			Help: "Number of distinct entities extracted",
		},
		[]string{"label"},
	)

	relationshipsExtractedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_relationships_extracted_total",
			Help: "Number of relationships extracted",
		},
		[]string{"type", "method"},
	)
)

func init() {
	prometheus.MustRegister(pipelineProcessingDuration)
	prometheus.MustRegister(documentProcessedTotal)
	prometheus.MustRegister(entitiesExtractedTotal)
	prometheus.MustRegister(relationshipsExtractedTotal)
}

// Input is one document for BatchRun.
type Input struct {
	Text   string
	Source Source
}

// Pipeline structures raw text into paragraphs, entities and relationships
// using one extraction strategy.
type Pipeline struct {
	extractor Extractor
	segmenter *Segmenter
	logger    *logrus.Logger
	batchSize int
}

type PipelineOption func(*Pipeline)

func WithLogger(logger *logrus.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithSegmenter(s *Segmenter) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.segmenter = s
		}
	}
}

// WithBatchSize sets how many documents BatchRun processes concurrently.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewPipeline creates a new structuring pipeline
func NewPipeline(extractor Extractor, opts ...PipelineOption) *Pipeline {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	p := &Pipeline{
		extractor: extractor,
		segmenter: defaultSegmenter,
		logger:    logger,
		batchSize: 10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode reports the extraction strategy bound to the pipeline.
func (p *Pipeline) Mode() ExtractionMode {
	return p.extractor.Mode()
}

// Run structures text. Paragraphs are processed in order with a fresh
// document state; the returned document is owned by the caller.
func (p *Pipeline) Run(text string, src Source) *Document {
	mode := string(p.extractor.Mode())
	timer := prometheus.NewTimer(pipelineProcessingDuration.WithLabelValues(mode))
	defer timer.ObserveDuration()

	state := NewDocumentState()
	paragraphs := p.segmenter.Segment(text)

	for i := range paragraphs {
		mentions := dedupeMentions(p.extractor.ExtractEntities(paragraphs[i], state))
		paragraphs[i].EntityIDs = mentions

		for _, rel := range p.extractor.ExtractRelationships(paragraphs[i], mentions, state) {
			if state.Relations.Add(rel) {
				method, _ := rel.Metadata["method"].(string)
				if method == "" {
					method = "pattern"
				}
				relationshipsExtractedTotal.WithLabelValues(string(rel.Type), method).Inc()
			}
		}
		state.forget(paragraphs[i].ID)
	}

	entities := state.Resolver.Entities()
	for _, e := range entities {
		entitiesExtractedTotal.WithLabelValues(string(e.Label)).Inc()
	}

	doc := &Document{
		Source:        src.Name,
		Type:          src.Type,
		Metadata:      copyMetadata(src.Metadata),
		Paragraphs:    paragraphs,
		Entities:      entities,
		Relationships: state.Relations.Items(),
	}

	documentProcessedTotal.WithLabelValues("success").Inc()
	p.logger.WithFields(logrus.Fields{
		"source":        doc.Source,
		"mode":          mode,
		"paragraphs":    len(doc.Paragraphs),
		"entities":      len(doc.Entities),
		"relationships": len(doc.Relationships),
	}).Info("Document structured")

	return doc
}

// BatchRun structures multiple documents concurrently, batchSize at a time.
// Each document gets its own state. The context is checked before each
// document starts; documents already running are finished.
func (p *Pipeline) BatchRun(ctx context.Context, inputs []Input) ([]*Document, error) {
	p.logger.WithField("document_count", len(inputs)).Info("Starting batch processing")

	results := make([]*Document, len(inputs))
	for i := 0; i < len(inputs); i += p.batchSize {
		end := min(i+p.batchSize, len(inputs))
		var wg sync.WaitGroup
		for j := i; j < end; j++ {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				documentProcessedTotal.WithLabelValues("cancelled").Add(float64(len(inputs) - j))
				return results, fmt.Errorf("batch processing stopped after %d documents: %w", j, err)
			}
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = p.Run(inputs[idx].Text, inputs[idx].Source)
			}(j)
		}
		wg.Wait()
	}

	p.logger.Info("Batch processing completed successfully")
	return results, nil
}

func dedupeMentions(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func copyMetadata(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
