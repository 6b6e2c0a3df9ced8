// Package services builds the clients and pipelines shared by the MCP tools
// and the CLI. External clients are created on first use, so a missing
// Qdrant or Neo4j setting only disables the features that need it.
package services

import (
	"context"
	"sync"

	"github.com/athapong/docgraph-mcp/pkg/config"
	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/embedding"
	"github.com/athapong/docgraph-mcp/pkg/graph/ingest"
	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type Services struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *storage.JSONDocumentStore

	structurer func() *graph.Pipeline
	openAI     func() (*openai.Client, error)
	qdrant     func() (*qdrant.Client, error)
	neo4j      func() (*storage.Neo4jSink, error)
	embedder   func() (embedding.Embedder, error)

	mu     sync.Mutex
	closed []func() error
}

func New(cfg *config.Config, logger *logrus.Logger) *Services {
	if logger == nil {
		logger = cfg.NewLogger()
	}

	s := &Services{
		cfg:    cfg,
		logger: logger,
		store:  storage.NewJSONDocumentStore(cfg.Store.Dir),
	}
	s.structurer = sync.OnceValue(s.newStructurer)
	s.openAI = sync.OnceValues(func() (*openai.Client, error) {
		return newOpenAIClient(cfg.OpenAI)
	})
	s.qdrant = sync.OnceValues(func() (*qdrant.Client, error) {
		client, err := newQdrantClient(cfg.Qdrant)
		if err == nil {
			s.onClose(client.Close)
		}
		return client, err
	})
	s.neo4j = sync.OnceValues(func() (*storage.Neo4jSink, error) {
		sink, err := newNeo4jSink(cfg.Neo4j, logger)
		if err == nil {
			s.onClose(sink.Close)
		}
		return sink, err
	})
	s.embedder = sync.OnceValues(s.newEmbedder)
	return s
}

func (s *Services) Config() *config.Config {
	return s.cfg
}

func (s *Services) Logger() *logrus.Logger {
	return s.logger
}

func (s *Services) onClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, fn)
}

// Close releases the external clients that were opened.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for _, fn := range s.closed {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	s.closed = nil
	return first
}

func (s *Services) newStructurer() *graph.Pipeline {
	extraction := s.cfg.Extraction
	extractor := processors.NewExtractor(processors.ExtractorConfig{
		UseModel: extraction.UseModel,
		Keywords: extraction.Keywords,
		Verbs:    extraction.Verbs,
		Logger:   s.logger,
	})

	return graph.NewPipeline(extractor,
		graph.WithLogger(s.logger),
		graph.WithSegmenter(graph.NewSegmenter(s.cfg.SegmenterOptions())),
		graph.WithBatchSize(extraction.BatchSize),
	)
}

// Structurer returns the structuring pipeline. The extraction strategy is
// chosen on the first call and kept for the life of the process.
func (s *Services) Structurer() *graph.Pipeline {
	return s.structurer()
}

func (s *Services) newEmbedder() (embedding.Embedder, error) {
	client, err := s.openAI()
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewOpenAIEmbedder(client, embedding.Options{
		Model:      s.cfg.OpenAI.EmbeddingModel,
		Dimensions: s.cfg.OpenAI.Dimensions,
		MaxTokens:  s.cfg.OpenAI.MaxTokens,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

func (s *Services) Embedder() (embedding.Embedder, error) {
	return s.embedder()
}

func (s *Services) VectorStore() (*storage.QdrantStore, error) {
	client, err := s.qdrant()
	if err != nil {
		return nil, err
	}
	return storage.NewQdrantStore(client, s.cfg.Qdrant.Collection, s.cfg.Qdrant.ScoreThreshold, s.logger), nil
}

func (s *Services) GraphSink() (*storage.Neo4jSink, error) {
	return s.neo4j()
}

func (s *Services) DocumentStore() *storage.JSONDocumentStore {
	return s.store
}

func (s *Services) baseOptions() []ingest.Option {
	opts := []ingest.Option{ingest.WithLogger(s.logger)}
	if s.cfg.Extraction.MaxFileSize > 0 {
		opts = append(opts, ingest.WithMaxFileSize(s.cfg.Extraction.MaxFileSize))
	}
	return opts
}

// Converter returns an ingestion pipeline without sinks. Its results are
// structured but never stored.
func (s *Services) Converter() *ingest.Pipeline {
	return ingest.New(s.Structurer(), s.baseOptions()...)
}

// Ingest builds an ingestion pipeline with every sink that can be reached.
// The JSON document store is always enabled.
func (s *Services) Ingest() *ingest.Pipeline {
	opts := append(s.baseOptions(), ingest.WithDocumentStore(s.store))

	embedder, err := s.Embedder()
	if err == nil {
		var vectors *storage.QdrantStore
		if vectors, err = s.VectorStore(); err == nil {
			opts = append(opts, ingest.WithVectorSink(embedder, vectors))
		}
	}
	if err != nil {
		s.skipSink(ingest.SinkVector, s.cfg.Qdrant.Host != "" && s.cfg.OpenAI.APIKey != "", err)
	}

	if sink, err := s.GraphSink(); err != nil {
		s.skipSink(ingest.SinkGraph, s.cfg.Neo4j.URI != "", err)
	} else {
		opts = append(opts, ingest.WithGraphSink(sink))
	}

	return ingest.New(s.Structurer(), opts...)
}

// skipSink logs a disabled sink; only sinks that were configured but failed warrant a warning.
func (s *Services) skipSink(name string, configured bool, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"sink":  name,
		"error": err.Error(),
	})
	if configured {
		entry.Warn("Sink unavailable")
		return
	}
	entry.Debug("Sink not configured")
}

// Retriever returns the semantic search over indexed paragraphs.
func (s *Services) Retriever() (*ingest.Retriever, error) {
	embedder, err := s.Embedder()
	if err != nil {
		return nil, err
	}
	vectors, err := s.VectorStore()
	if err != nil {
		return nil, err
	}
	return ingest.NewRetriever(embedder, vectors, s.store, s.logger), nil
}

// KnowledgeGraph returns the Neo4j graph when configured. Otherwise the
// documents in the JSON store are loaded into an in-memory graph.
func (s *Services) KnowledgeGraph(ctx context.Context) (graph.KnowledgeGraph, error) {
	if s.cfg.Neo4j.URI != "" {
		sink, err := s.GraphSink()
		if err != nil {
			return nil, err
		}
		return sink, nil
	}

	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	kg := graph.NewMemoryKnowledgeGraph()
	for _, doc := range docs {
		if err := kg.BatchAdd(ctx, doc); err != nil {
			return nil, err
		}
	}
	s.logger.WithField("documents", len(docs)).Debug("Loaded stored documents into memory graph")
	return kg, nil
}
