package storage

import (
	"context"
	"fmt"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/query"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Neo4jSink stores structured documents and their entities in Neo4j. It also
// implements graph.Storage over the (:Entity) nodes it writes.
type Neo4jSink struct {
	driver    neo4j.Driver
	database  string
	connected bool
	logger    *logrus.Logger
}

// NewNeo4jSink creates a sink. The driver connects lazily; call Connect to
// verify the server is reachable.
func NewNeo4jSink(uri, username, password, database string, logger *logrus.Logger) (*Neo4jSink, error) {
	auth := neo4j.BasicAuth(username, password, "")
	driver, err := neo4j.NewDriver(uri, auth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Neo4j driver")
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Neo4jSink{
		driver:   driver,
		database: database,
		logger:   logger,
	}, nil
}

// Connect implements Storage interface
func (s *Neo4jSink) Connect(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(); err != nil {
		return errors.Wrap(err, "neo4j unreachable")
	}
	s.connected = true
	return nil
}

// Close implements Storage interface
func (s *Neo4jSink) Close() error {
	s.connected = false
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}

// StoreDocument writes doc in one transaction: the document node, its
// paragraphs, the entities they mention and the relationships between them.
func (s *Neo4jSink) StoreDocument(ctx context.Context, doc *graph.Document) error {
	stmts, err := DocumentStatements(doc)
	if err != nil {
		return err
	}
	if err := s.write(stmts); err != nil {
		return errors.Wrapf(err, "storing document %s", doc.Source)
	}

	s.logger.WithFields(logrus.Fields{
		"source":        doc.Source,
		"paragraphs":    len(doc.Paragraphs),
		"entities":      len(doc.Entities),
		"relationships": len(doc.Relationships),
	}).Debug("Stored document in Neo4j")
	return nil
}

// AddEntity implements KnowledgeGraph interface
func (s *Neo4jSink) AddEntity(ctx context.Context, entity *graph.Entity, source string) error {
	stmt, err := entityStatement(entity)
	if err != nil {
		return err
	}
	if source != "" {
		stmt.Cypher += " WITH e MATCH (d:Document {source: $source}) MERGE (d)-[:CONTAINS]->(e)"
		stmt.Params["source"] = source
	}
	return s.write([]query.Statement{stmt})
}

// AddRelationship implements KnowledgeGraph interface
func (s *Neo4jSink) AddRelationship(ctx context.Context, rel *graph.Relationship) error {
	stmt, err := relationshipStatement(rel)
	if err != nil {
		return err
	}
	return s.write([]query.Statement{stmt})
}

// GetEntity implements KnowledgeGraph interface
func (s *Neo4jSink) GetEntity(ctx context.Context, id string) (*graph.Entity, error) {
	stmt, err := query.NewQuery(query.Match).
		AddPattern(query.Pattern{Alias: "e", NodeType: "Entity", Properties: map[string]interface{}{"id": id}}).
		Build()
	if err != nil {
		return nil, err
	}

	entities, err := s.readEntities(stmt, "e")
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("entity not found: %s", id)
	}
	return &entities[0], nil
}

// GetRelatedEntities implements KnowledgeGraph interface
func (s *Neo4jSink) GetRelatedEntities(ctx context.Context, entityID string, relationType graph.RelationType) ([]graph.Entity, error) {
	stmt, err := RelatedEntitiesQuery(entityID, relationType).Build()
	if err != nil {
		return nil, err
	}
	return s.readEntities(stmt, "related")
}

// DeleteEntity implements KnowledgeGraph interface
func (s *Neo4jSink) DeleteEntity(ctx context.Context, id string) error {
	stmt, err := query.NewQuery(query.Delete).
		AddPattern(query.Pattern{Alias: "e", NodeType: "Entity", Properties: map[string]interface{}{"id": id}}).
		Return("e").
		Build()
	if err != nil {
		return err
	}
	return s.write([]query.Statement{stmt})
}

// DeleteRelationship implements KnowledgeGraph interface
func (s *Neo4jSink) DeleteRelationship(ctx context.Context, id string) error {
	return s.write([]query.Statement{{
		Cypher: "MATCH ()-[r {id: $id}]->() DELETE r",
		Params: map[string]interface{}{"id": id},
	}})
}

// BatchAdd implements KnowledgeGraph interface
func (s *Neo4jSink) BatchAdd(ctx context.Context, doc *graph.Document) error {
	return s.StoreDocument(ctx, doc)
}

// RelatedEntitiesQuery matches entities linked to entityID in either
// direction, optionally restricted to one relationship type.
func RelatedEntitiesQuery(entityID string, relationType graph.RelationType) *query.Query {
	return query.NewQuery(query.Match).
		AddPattern(query.Pattern{Alias: "e", NodeType: "Entity", Properties: map[string]interface{}{"id": entityID}}).
		AddPattern(query.Pattern{Alias: "related", NodeType: "Entity", RelationType: string(relationType), Direction: query.Both}).
		Return("related").
		SetDistinct(true)
}

func (s *Neo4jSink) write(stmts []query.Statement) error {
	if !s.connected {
		return ErrNotConnected
	}

	session := s.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer session.Close()

	_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		for _, stmt := range stmts {
			result, err := tx.Run(stmt.Cypher, stmt.Params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (s *Neo4jSink) readEntities(stmt query.Statement, key string) ([]graph.Entity, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	session := s.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer session.Close()

	out, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		result, err := tx.Run(stmt.Cypher, stmt.Params)
		if err != nil {
			return nil, err
		}

		entities := make([]graph.Entity, 0)
		for result.Next() {
			value, ok := result.Record().Get(key)
			if !ok {
				continue
			}
			if node, ok := value.(neo4j.Node); ok {
				entities = append(entities, entityFromProps(node.Props))
			}
		}
		return entities, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.([]graph.Entity), nil
}

// DocumentStatements renders the MERGE statements that persist doc.
// Paragraph ids are qualified by source so documents never share them.
func DocumentStatements(doc *graph.Document) ([]query.Statement, error) {
	if doc == nil {
		return nil, errors.New("cannot store nil document")
	}

	stmts := []query.Statement{{
		Cypher: "MERGE (d:Document {source: $source}) SET d.type = $type, d += $metadata",
		Params: map[string]interface{}{
			"source":   doc.Source,
			"type":     doc.Type,
			"metadata": FlattenMetadata(doc.Metadata),
		},
	}}

	for _, e := range doc.Entities {
		stmt, err := entityStatement(&e)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	for i, p := range doc.Paragraphs {
		stmts = append(stmts, query.Statement{
			Cypher: "MATCH (d:Document {source: $source}) " +
				"MERGE (p:Paragraph {id: $id}) SET p.text = $text, p.position = $position " +
				"MERGE (d)-[:HAS_PARAGRAPH]->(p) " +
				"WITH p UNWIND $entity_ids AS eid MATCH (e:Entity {id: eid}) MERGE (p)-[:MENTIONS]->(e)",
			Params: map[string]interface{}{
				"source":     doc.Source,
				"id":         doc.Source + "#" + p.ID,
				"text":       p.Text,
				"position":   i,
				"entity_ids": p.EntityIDs,
			},
		})
	}

	for _, rel := range doc.Relationships {
		stmt, err := relationshipStatement(&rel)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

func entityStatement(entity *graph.Entity) (query.Statement, error) {
	if entity == nil || entity.ID == "" {
		return query.Statement{}, errors.New("entity must have an id")
	}
	if !entity.Label.Valid() {
		return query.Statement{}, fmt.Errorf("invalid entity label: %q", entity.Label)
	}

	props := FlattenMetadata(entity.Metadata)
	props["label"] = string(entity.Label)

	return query.Statement{
		Cypher: fmt.Sprintf("MERGE (e:Entity {id: $id}) SET e:%s, e += $props", entity.Label),
		Params: map[string]interface{}{"id": entity.ID, "props": props},
	}, nil
}

func relationshipStatement(rel *graph.Relationship) (query.Statement, error) {
	if !rel.Type.Valid() {
		return query.Statement{}, fmt.Errorf("invalid relationship type: %q", rel.Type)
	}

	return query.Statement{
		Cypher: fmt.Sprintf("MATCH (a:Entity {id: $start}), (b:Entity {id: $end}) "+
			"MERGE (a)-[r:%s]->(b) ON CREATE SET r += $props, r.id = $id", rel.Type),
		Params: map[string]interface{}{
			"start": rel.Start,
			"end":   rel.End,
			"id":    graph.EdgeID(rel.Start, rel.Type, rel.End),
			"props": FlattenMetadata(rel.Metadata),
		},
	}, nil
}

// FlattenMetadata converts metadata into Neo4j property values. Nested maps
// become dotted keys; nil values are dropped.
func FlattenMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata))
	flattenInto(out, "", metadata)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, metadata map[string]interface{}) {
	for k, v := range metadata {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case nil:
		case map[string]interface{}:
			flattenInto(out, key, val)
		case string, bool, int, int64, float64:
			out[key] = val
		case int32:
			out[key] = int64(val)
		case float32:
			out[key] = float64(val)
		case []string:
			out[key] = val
		case []interface{}:
			out[key] = scalarList(val)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func scalarList(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func entityFromProps(props map[string]interface{}) graph.Entity {
	entity := graph.Entity{Metadata: make(map[string]interface{})}
	for k, v := range props {
		switch k {
		case "id":
			entity.ID, _ = v.(string)
		case "label":
			label, _ := v.(string)
			entity.Label = graph.Label(label)
		default:
			entity.Metadata[k] = v
		}
	}
	return entity
}
