package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQdrant struct {
	exists  bool
	created []*qdrant.CreateCollection
	upserts []*qdrant.UpsertPoints
	deletes []*qdrant.DeletePoints
	queries []*qdrant.QueryPoints
	results []*qdrant.ScoredPoint
	err     error
}

func (f *fakeQdrant) CollectionExists(ctx context.Context, name string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeQdrant) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.created = append(f.created, req)
	return f.err
}

func (f *fakeQdrant) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeQdrant) Delete(ctx context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deletes = append(f.deletes, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeQdrant) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.results, f.err
}

func TestQdrantEnsureCollection(t *testing.T) {
	client := &fakeQdrant{}
	store := storage.NewQdrantStore(client, "paragraphs", 0, quietLogger())

	require.NoError(t, store.EnsureCollection(context.Background(), 1536))
	require.Len(t, client.created, 1)
	params := client.created[0].GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(1536), params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())

	client.exists = true
	require.NoError(t, store.EnsureCollection(context.Background(), 1536))
	assert.Len(t, client.created, 1)

	client.exists = false
	assert.Error(t, store.EnsureCollection(context.Background(), 0))
}

func TestQdrantUpsertDocument(t *testing.T) {
	client := &fakeQdrant{}
	store := storage.NewQdrantStore(client, "paragraphs", 0, quietLogger())
	doc := sampleDocument("a.txt")

	err := store.UpsertDocument(context.Background(), doc, [][]float32{{0.1, 0.2}, {0.3, 0.4}})
	require.NoError(t, err)

	require.Len(t, client.deletes, 1, "stale points are removed first")
	require.Len(t, client.upserts, 1)
	points := client.upserts[0].Points
	require.Len(t, points, 2)

	first := points[0]
	assert.Equal(t, storage.PointID("a.txt", "p1"), first.GetId().GetUuid())
	assert.Equal(t, "a.txt", first.Payload["source"].GetStringValue())
	assert.Equal(t, "p1", first.Payload["paragraph_id"].GetStringValue())
	assert.Equal(t, int64(0), first.Payload["position"].GetIntegerValue())
	assert.Equal(t, "Alice works at DevForge.", first.Payload["text"].GetStringValue())
	assert.Len(t, first.Payload["entity_ids"].GetListValue().GetValues(), 2)
	assert.Equal(t, "DevForge", first.Payload["entity_names"].GetListValue().GetValues()[1].GetStringValue())

	assert.NotEqual(t, storage.PointID("a.txt", "p1"), storage.PointID("b.txt", "p1"))

	err = store.UpsertDocument(context.Background(), doc, [][]float32{{0.1}})
	assert.Error(t, err)
}

func TestQdrantSearch(t *testing.T) {
	payload, err := qdrant.TryValueMap(map[string]any{
		"source":       "a.txt",
		"paragraph_id": "p2",
		"position":     int64(1),
		"text":         "DevForge is based in Bangalore.",
		"entity_ids":   []interface{}{"e_devforge", "e_bangalore"},
		"entity_names": []interface{}{"DevForge", "Bangalore"},
	})
	require.NoError(t, err)

	client := &fakeQdrant{results: []*qdrant.ScoredPoint{{Payload: payload, Score: 0.87}}}
	store := storage.NewQdrantStore(client, "paragraphs", 0.3, quietLogger())

	hits, err := store.Search(context.Background(), []float32{0.1, 0.2}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, storage.SearchHit{
		Source:      "a.txt",
		ParagraphID: "p2",
		Position:    1,
		Text:        "DevForge is based in Bangalore.",
		Score:       0.87,
		EntityIDs:   []string{"e_devforge", "e_bangalore"},
		EntityNames: []string{"DevForge", "Bangalore"},
	}, hits[0])

	req := client.queries[0]
	assert.Equal(t, uint64(10), req.GetLimit())
	assert.Equal(t, float32(0.3), req.GetScoreThreshold())

	client.err = errors.New("unavailable")
	_, err = store.Search(context.Background(), []float32{0.1}, 5)
	assert.Error(t, err)
}
