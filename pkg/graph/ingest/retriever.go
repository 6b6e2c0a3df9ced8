package ingest

import (
	"context"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/embedding"
	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Searcher finds the paragraphs closest to a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]storage.SearchHit, error)
}

// ContextHit is a search hit with its neighbouring paragraphs and the
// entities it mentions.
type ContextHit struct {
	storage.SearchHit
	Previous string         `json:"previous,omitempty"`
	Next     string         `json:"next,omitempty"`
	Entities []graph.Entity `json:"entities,omitempty"`
}

// Retriever runs semantic search over indexed paragraphs and attaches
// document context from the document store.
type Retriever struct {
	embedder embedding.Embedder
	searcher Searcher
	store    DocumentStore
	logger   *logrus.Logger
}

func NewRetriever(e embedding.Embedder, s Searcher, store DocumentStore, logger *logrus.Logger) *Retriever {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Retriever{embedder: e, searcher: s, store: store, logger: logger}
}

func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]ContextHit, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, errors.Wrap(err, "embedding query")
	}
	if len(vectors) != 1 {
		return nil, errors.Errorf("expected one query vector, got %d", len(vectors))
	}

	hits, err := r.searcher.Search(ctx, vectors[0], limit)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]*graph.Document)
	out := make([]ContextHit, 0, len(hits))
	for _, hit := range hits {
		ch := ContextHit{SearchHit: hit}
		if doc := r.document(ctx, docs, hit.Source); doc != nil {
			attachContext(&ch, doc)
		}
		out = append(out, ch)
	}
	return out, nil
}

// document loads each source once per search. Missing documents yield hits
// without context.
func (r *Retriever) document(ctx context.Context, cache map[string]*graph.Document, source string) *graph.Document {
	if r.store == nil {
		return nil
	}
	if doc, ok := cache[source]; ok {
		return doc
	}

	doc, err := r.store.Load(ctx, source)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"source": source,
			"error":  err.Error(),
		}).Debug("No stored document for search hit")
		doc = nil
	}
	cache[source] = doc
	return doc
}

func attachContext(ch *ContextHit, doc *graph.Document) {
	_, i, ok := doc.Paragraph(ch.ParagraphID)
	if !ok {
		return
	}

	if i > 0 {
		ch.Previous = doc.Paragraphs[i-1].Text
	}
	if i+1 < len(doc.Paragraphs) {
		ch.Next = doc.Paragraphs[i+1].Text
	}
	for _, id := range doc.Paragraphs[i].EntityIDs {
		if e, ok := doc.Entity(id); ok {
			ch.Entities = append(ch.Entities, e)
		}
	}
}
