package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/embedding"
	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound          = errors.New("ingest: file not found")
	ErrUnsupportedFormat = errors.New("ingest: unsupported format")
)

// Sink names used in reports, logs and metrics.
const (
	SinkVector    = "vector"
	SinkGraph     = "graph"
	SinkDocuments = "documents"
)

// VectorSink stores one embedding per paragraph.
type VectorSink interface {
	EnsureCollection(ctx context.Context, dimensions int) error
	UpsertDocument(ctx context.Context, doc *graph.Document, vectors [][]float32) error
}

// GraphSink stores a structured document in a graph database.
type GraphSink interface {
	StoreDocument(ctx context.Context, doc *graph.Document) error
}

// DocumentStore keeps structured documents by source.
type DocumentStore interface {
	Save(ctx context.Context, doc *graph.Document) error
	Load(ctx context.Context, source string) (*graph.Document, error)
}

// Fetcher downloads a URL and returns its text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Report says which sinks accepted a document.
type Report struct {
	Stored []string          `json:"stored"`
	Failed map[string]string `json:"failed,omitempty"`
}

// Pipeline converts files to text, structures them and hands the result to
// the configured sinks. A failing sink is logged and reported but does not
// fail the run.
type Pipeline struct {
	structurer  *graph.Pipeline
	registry    *processors.Registry
	fetcher     Fetcher
	embedder    embedding.Embedder
	vectors     VectorSink
	graph       GraphSink
	store       DocumentStore
	maxFileSize int64
	logger      *logrus.Logger
}

type Option func(*Pipeline)

func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithRegistry(r *processors.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.fetcher = f
		}
	}
}

// WithVectorSink embeds every paragraph with e and stores the vectors in v.
func WithVectorSink(e embedding.Embedder, v VectorSink) Option {
	return func(p *Pipeline) {
		p.embedder = e
		p.vectors = v
	}
}

func WithGraphSink(g GraphSink) Option {
	return func(p *Pipeline) {
		p.graph = g
	}
}

func WithDocumentStore(s DocumentStore) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithMaxFileSize rejects files larger than n bytes; 0 means no limit.
func WithMaxFileSize(n int64) Option {
	return func(p *Pipeline) {
		p.maxFileSize = n
	}
}

func New(structurer *graph.Pipeline, opts ...Option) *Pipeline {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	p := &Pipeline{
		structurer: structurer,
		registry:   processors.NewRegistry(),
		fetcher:    processors.NewURLConverter(nil),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sinks lists the configured sinks.
func (p *Pipeline) Sinks() []string {
	var sinks []string
	if p.vectors != nil && p.embedder != nil {
		sinks = append(sinks, SinkVector)
	}
	if p.graph != nil {
		sinks = append(sinks, SinkGraph)
	}
	if p.store != nil {
		sinks = append(sinks, SinkDocuments)
	}
	return sinks
}

// Structure converts and structures the file at path without persisting it.
func (p *Pipeline) Structure(ctx context.Context, path string) (*graph.Document, error) {
	text, src, err := p.Convert(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.structurer.Run(text, src), nil
}

// Run structures the file at path and stores the result in every sink.
func (p *Pipeline) Run(ctx context.Context, path string) (*graph.Document, error) {
	doc, _, err := p.RunWithReport(ctx, path)
	return doc, err
}

func (p *Pipeline) RunWithReport(ctx context.Context, path string) (*graph.Document, Report, error) {
	doc, err := p.Structure(ctx, path)
	if err != nil {
		return nil, Report{}, err
	}
	return doc, p.persist(ctx, doc), nil
}

// RunText structures pasted content under the given source name.
func (p *Pipeline) RunText(ctx context.Context, name, text string) (*graph.Document, Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}
	doc := p.structurer.Run(text, graph.Source{
		Name:     name,
		Type:     "text",
		Metadata: map[string]interface{}{"filesize": len(text)},
	})
	return doc, p.persist(ctx, doc), nil
}

// RunURL fetches rawURL and structures the page. Nothing is persisted.
func (p *Pipeline) RunURL(ctx context.Context, rawURL string) (*graph.Document, error) {
	text, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.DocumentConversionErrors.WithLabelValues("url").Inc()
		return nil, err
	}
	return p.structurer.Run(text, graph.Source{
		Name:     rawURL,
		Type:     "url",
		Metadata: map[string]interface{}{"url": rawURL},
	}), nil
}

// Supports reports whether a converter is registered for the extension of path.
func (p *Pipeline) Supports(path string) bool {
	_, ok := p.registry.For(strings.ToLower(filepath.Ext(path)))
	return ok
}

// Convert reads the file at path and converts it to text. The returned
// source describes the file.
func (p *Pipeline) Convert(ctx context.Context, path string) (string, graph.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", graph.Source{}, errors.Wrap(ErrNotFound, path)
		}
		return "", graph.Source{}, errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return "", graph.Source{}, errors.Errorf("%s is a directory", path)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return "", graph.Source{}, errors.Errorf("%s is %d bytes, larger than the %d byte limit", path, info.Size(), p.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	converter, ok := p.registry.For(ext)
	if !ok {
		return "", graph.Source{}, errors.Wrapf(ErrUnsupportedFormat, "%q (supported: %s)", ext, strings.Join(p.registry.Extensions(), ", "))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", graph.Source{}, errors.Wrapf(err, "reading %s", path)
	}

	format := strings.TrimPrefix(ext, ".")
	text, err := converter.Convert(ctx, content)
	if err != nil {
		metrics.DocumentConversionErrors.WithLabelValues(format).Inc()
		return "", graph.Source{}, errors.Wrapf(err, "converting %s", path)
	}

	return text, graph.Source{
		Name: filepath.Base(path),
		Type: format,
		Metadata: map[string]interface{}{
			"filename":  filepath.Base(path),
			"filesize":  info.Size(),
			"extension": ext,
		},
	}, nil
}

func (p *Pipeline) persist(ctx context.Context, doc *graph.Document) Report {
	report := Report{Stored: []string{}}
	record := func(sink string, err error) {
		if err == nil {
			report.Stored = append(report.Stored, sink)
			return
		}
		metrics.SinkErrors.WithLabelValues(sink).Inc()
		p.logger.WithFields(logrus.Fields{
			"sink":   sink,
			"source": doc.Source,
			"error":  err.Error(),
		}).Warn("Failed to persist document")
		if report.Failed == nil {
			report.Failed = make(map[string]string)
		}
		report.Failed[sink] = err.Error()
	}

	if p.store != nil {
		record(SinkDocuments, p.store.Save(ctx, doc))
	}
	if p.vectors != nil && p.embedder != nil {
		record(SinkVector, p.storeVectors(ctx, doc))
	}
	if p.graph != nil {
		record(SinkGraph, p.graph.StoreDocument(ctx, doc))
	}
	return report
}

func (p *Pipeline) storeVectors(ctx context.Context, doc *graph.Document) error {
	if err := p.vectors.EnsureCollection(ctx, p.embedder.Dimensions()); err != nil {
		return err
	}

	texts := make([]string, len(doc.Paragraphs))
	for i, para := range doc.Paragraphs {
		texts[i] = para.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		if vectors, err = p.embedder.Embed(ctx, texts); err != nil {
			return err
		}
	}
	return p.vectors.UpsertDocument(ctx, doc, vectors)
}
