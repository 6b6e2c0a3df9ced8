package storage

import (
	"context"
	"fmt"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"
)

// QdrantClient is the subset of *qdrant.Client used by QdrantStore.
type QdrantClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// SearchHit is one paragraph returned by a vector search.
type SearchHit struct {
	Source      string   `json:"source"`
	ParagraphID string   `json:"paragraph_id"`
	Position    int      `json:"position"`
	Text        string   `json:"text"`
	Score       float32  `json:"score"`
	EntityIDs   []string `json:"entity_ids"`
	EntityNames []string `json:"entity_names,omitempty"`
}

// QdrantStore indexes paragraphs as points, one per paragraph.
type QdrantStore struct {
	client         QdrantClient
	collection     string
	scoreThreshold float32
	logger         *logrus.Logger
}

func NewQdrantStore(client QdrantClient, collection string, scoreThreshold float32, logger *logrus.Logger) *QdrantStore {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &QdrantStore{
		client:         client,
		collection:     collection,
		scoreThreshold: scoreThreshold,
		logger:         logger,
	}
}

func (s *QdrantStore) Collection() string {
	return s.collection
}

// EnsureCollection creates the collection with cosine distance if it is missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return errors.Wrapf(err, "checking collection %s", s.collection)
	}
	if exists {
		return nil
	}
	if dimensions <= 0 {
		return fmt.Errorf("invalid vector size %d for collection %s", dimensions, s.collection)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errors.Wrapf(err, "creating collection %s", s.collection)
	}

	s.logger.WithFields(logrus.Fields{
		"collection": s.collection,
		"dimensions": dimensions,
	}).Info("Created Qdrant collection")
	return nil
}

// PointID is the deterministic point id of a paragraph.
func PointID(source, paragraphID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+paragraphID)).String()
}

// UpsertDocument replaces every point of doc.Source with one point per
// paragraph. vectors[i] is the embedding of doc.Paragraphs[i].
func (s *QdrantStore) UpsertDocument(ctx context.Context, doc *graph.Document, vectors [][]float32) error {
	if len(vectors) != len(doc.Paragraphs) {
		return fmt.Errorf("got %d vectors for %d paragraphs", len(vectors), len(doc.Paragraphs))
	}

	if err := s.DeleteDocument(ctx, doc.Source); err != nil {
		return err
	}
	if len(doc.Paragraphs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		payload, err := qdrant.TryValueMap(paragraphPayload(doc, p, i))
		if err != nil {
			return errors.Wrapf(err, "building payload for %s", p.ID)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(doc.Source, p.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		})
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return errors.Wrapf(err, "upserting %d points for %s", len(points), doc.Source)
	}
	return nil
}

func paragraphPayload(doc *graph.Document, p graph.Paragraph, position int) map[string]any {
	ids := make([]interface{}, 0, len(p.EntityIDs))
	names := make([]interface{}, 0, len(p.EntityIDs))
	for _, id := range p.EntityIDs {
		ids = append(ids, id)
		if e, ok := doc.Entity(id); ok {
			names = append(names, e.Name())
		}
	}

	return map[string]any{
		"source":       doc.Source,
		"paragraph_id": p.ID,
		"position":     int64(position),
		"text":         p.Text,
		"entity_ids":   ids,
		"entity_names": names,
	}
}

// DeleteDocument removes every point stored for source.
func (s *QdrantStore) DeleteDocument(ctx context.Context, source string) error {
	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("source", source)},
		}),
	})
	return errors.Wrapf(err, "deleting points for %s", source)
}

// Search returns the paragraphs closest to vector, best first.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	l := uint64(limit)

	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if s.scoreThreshold > 0 {
		threshold := s.scoreThreshold
		req.ScoreThreshold = &threshold
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "searching collection %s", s.collection)
	}

	hits := make([]SearchHit, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		hits = append(hits, SearchHit{
			Source:      payload["source"].GetStringValue(),
			ParagraphID: payload["paragraph_id"].GetStringValue(),
			Position:    int(payload["position"].GetIntegerValue()),
			Text:        payload["text"].GetStringValue(),
			Score:       point.GetScore(),
			EntityIDs:   stringList(payload["entity_ids"]),
			EntityNames: stringList(payload["entity_names"]),
		})
	}
	return hits, nil
}

func stringList(v *qdrant.Value) []string {
	values := v.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, item := range values {
		out = append(out, item.GetStringValue())
	}
	return out
}
