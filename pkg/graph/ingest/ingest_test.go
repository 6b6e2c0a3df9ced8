package ingest_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/ingest"
	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = "Alice works at DevForge and leads the platform team that ships the billing services.\n\n" +
	"DevForge is based in Bangalore and recently opened a second office for its engineers."

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func structurer() *graph.Pipeline {
	keywords := processors.NewKeywords(processors.KeywordConfig{
		Persons:           []string{"alice"},
		CompanyIndicators: []string{"inc", "ltd"},
		Companies:         []string{"DevForge"},
		Locations:         []string{"bangalore"},
		Stopwords:         []string{"the"},
	})
	return graph.NewPipeline(processors.NewHeuristicExtractor(keywords), graph.WithLogger(quietLogger()))
}

type fakeEmbedder struct{ calls int }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

type fakeVectors struct {
	dims    int
	docs    []*graph.Document
	vectors [][][]float32
}

func (f *fakeVectors) EnsureCollection(ctx context.Context, dims int) error {
	f.dims = dims
	return nil
}

func (f *fakeVectors) UpsertDocument(ctx context.Context, doc *graph.Document, vectors [][]float32) error {
	f.docs = append(f.docs, doc)
	f.vectors = append(f.vectors, vectors)
	return nil
}

type failingGraph struct{}

func (failingGraph) StoreDocument(ctx context.Context, doc *graph.Document) error {
	return errors.New("neo4j unreachable")
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	text, ok := f[rawURL]
	if !ok {
		return "", errors.New("not found")
	}
	return text, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunErrors(t *testing.T) {
	p := ingest.New(structurer(), ingest.WithLogger(quietLogger()))
	ctx := context.Background()

	_, err := p.Run(ctx, filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ingest.ErrNotFound)

	_, err = p.Run(ctx, writeFile(t, "program.exe", "MZ"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	_, err = p.Run(ctx, t.TempDir())
	assert.Error(t, err)

	_, err = ingest.New(structurer(), ingest.WithMaxFileSize(10)).Run(ctx, writeFile(t, "big.txt", report))
	assert.ErrorContains(t, err, "byte limit")

	_, err = p.Run(ctx, writeFile(t, "broken.json", "{not json"))
	assert.Error(t, err)
}

func TestRunStructuresFile(t *testing.T) {
	path := writeFile(t, "notes.txt", report)
	doc, err := ingest.New(structurer(), ingest.WithLogger(quietLogger())).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", doc.Source)
	assert.Equal(t, "txt", doc.Type)
	assert.Equal(t, "notes.txt", doc.Metadata["filename"])
	assert.Equal(t, int64(len(report)), doc.Metadata["filesize"])
	assert.Equal(t, ".txt", doc.Metadata["extension"])

	require.Len(t, doc.Paragraphs, 2)
	assert.Len(t, doc.Entities, 3)
	assert.Len(t, doc.Relationships, 2)
}

func TestRunWithSinks(t *testing.T) {
	embedder := &fakeEmbedder{}
	vectors := &fakeVectors{}
	store := storage.NewJSONDocumentStore(t.TempDir())

	p := ingest.New(structurer(),
		ingest.WithLogger(quietLogger()),
		ingest.WithVectorSink(embedder, vectors),
		ingest.WithGraphSink(failingGraph{}),
		ingest.WithDocumentStore(store),
	)
	assert.Equal(t, []string{ingest.SinkVector, ingest.SinkGraph, ingest.SinkDocuments}, p.Sinks())

	doc, rep, err := p.RunWithReport(context.Background(), writeFile(t, "notes.md", report))
	require.NoError(t, err, "sink failures do not fail ingestion")

	assert.Equal(t, []string{ingest.SinkDocuments, ingest.SinkVector}, rep.Stored)
	assert.Contains(t, rep.Failed[ingest.SinkGraph], "neo4j unreachable")

	assert.Equal(t, 2, vectors.dims)
	require.Len(t, vectors.vectors, 1)
	assert.Len(t, vectors.vectors[0], len(doc.Paragraphs))

	stored, err := store.Load(context.Background(), "notes.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Paragraphs, stored.Paragraphs)
}

func TestRunTextAndURL(t *testing.T) {
	p := ingest.New(structurer(),
		ingest.WithLogger(quietLogger()),
		ingest.WithFetcher(fakeFetcher{"https://example.com/report": report}),
	)
	ctx := context.Background()

	doc, rep, err := p.RunText(ctx, "pasted", report)
	require.NoError(t, err)
	assert.Equal(t, "pasted", doc.Source)
	assert.Equal(t, "text", doc.Type)
	assert.Empty(t, rep.Stored)
	assert.Len(t, doc.Entities, 3)

	doc, err = p.RunURL(ctx, "https://example.com/report")
	require.NoError(t, err)
	assert.Equal(t, "url", doc.Type)
	assert.Equal(t, "https://example.com/report", doc.Metadata["url"])
	assert.Len(t, doc.Paragraphs, 2)

	_, err = p.RunURL(ctx, "https://example.com/missing")
	assert.Error(t, err)

	empty, _, err := p.RunText(ctx, "empty", "   ")
	require.NoError(t, err)
	assert.Empty(t, empty.Paragraphs)
	assert.Empty(t, empty.Entities)
}

func TestConvertAndSupports(t *testing.T) {
	p := ingest.New(structurer(), ingest.WithLogger(quietLogger()))

	assert.True(t, p.Supports("notes/Report.MD"))
	assert.True(t, p.Supports("a.docx"))
	assert.False(t, p.Supports("program.exe"))

	text, src, err := p.Convert(context.Background(), writeFile(t, "notes.md", report))
	require.NoError(t, err)
	assert.Equal(t, report, text)
	assert.Equal(t, "md", src.Type)
}
