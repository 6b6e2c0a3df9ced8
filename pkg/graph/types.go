package graph

import (
	"context"
)

// Label is the category of an entity.
type Label string

const (
	LabelPerson   Label = "Person"
	LabelCompany  Label = "Company"
	LabelLocation Label = "Location"
	LabelConcept  Label = "Concept"
)

// Labels lists every category in a stable order.
var Labels = []Label{LabelPerson, LabelCompany, LabelLocation, LabelConcept}

// Valid reports whether l is one of the four known categories.
func (l Label) Valid() bool {
	switch l {
	case LabelPerson, LabelCompany, LabelLocation, LabelConcept:
		return true
	}
	return false
}

// RelationType is the type of a directed edge between two entities.
type RelationType string

const (
	RelationWorksAt   RelationType = "WORKS_AT"
	RelationLocatedIn RelationType = "LOCATED_IN"
	RelationFounded   RelationType = "FOUNDED"
	RelationOwns      RelationType = "OWNS"
	RelationRelatedTo RelationType = "RELATED_TO"
)

func (t RelationType) Valid() bool {
	switch t {
	case RelationWorksAt, RelationLocatedIn, RelationFounded, RelationOwns, RelationRelatedTo:
		return true
	}
	return false
}

// ExtractionMode identifies the strategy bound to a pipeline.
type ExtractionMode string

const (
	ModeModel     ExtractionMode = "model"
	ModeHeuristic ExtractionMode = "heuristic"
)

// Paragraph is a contiguous unit of text produced by the segmenter.
type Paragraph struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	EntityIDs []string `json:"entity_ids"`
}

// Entity is a named thing detected in a document.
type Entity struct {
	ID       string                 `json:"id"`
	Label    Label                  `json:"label"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Name returns the display name stored in the metadata.
func (e Entity) Name() string {
	if name, ok := e.Metadata["name"].(string); ok {
		return name
	}
	return e.ID
}

// Relationship represents a typed edge between two entities.
type Relationship struct {
	Start    string                 `json:"start"`
	End      string                 `json:"end"`
	Type     RelationType           `json:"type"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Source describes where the text of a document came from.
type Source struct {
	Name     string
	Type     string
	Metadata map[string]interface{}
}

// Document is the structured result of one pipeline run.
type Document struct {
	Source        string                 `json:"source"`
	Type          string                 `json:"type"`
	Metadata      map[string]interface{} `json:"metadata"`
	Paragraphs    []Paragraph            `json:"paragraphs"`
	Entities      []Entity               `json:"entities"`
	Relationships []Relationship         `json:"relationships"`
}

// Entity looks up an entity by id.
func (d *Document) Entity(id string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Paragraph looks up a paragraph by id and returns its position.
func (d *Document) Paragraph(id string) (Paragraph, int, bool) {
	for i, p := range d.Paragraphs {
		if p.ID == id {
			return p, i, true
		}
	}
	return Paragraph{}, -1, false
}

// Extractor is an entity and relationship extraction strategy. A strategy is
// bound once per pipeline and must be safe for concurrent use across
// documents; per-document state lives in DocumentState.
type Extractor interface {
	Mode() ExtractionMode
	ExtractEntities(p Paragraph, doc *DocumentState) []string
	ExtractRelationships(p Paragraph, mentions []string, doc *DocumentState) []Relationship
}

// KnowledgeGraph interface defines the main operations for the graph
type KnowledgeGraph interface {
	AddEntity(ctx context.Context, entity *Entity, source string) error
	AddRelationship(ctx context.Context, rel *Relationship) error
	GetEntity(ctx context.Context, id string) (*Entity, error)
	GetRelatedEntities(ctx context.Context, entityID string, relationType RelationType) ([]Entity, error)
	DeleteEntity(ctx context.Context, id string) error
	DeleteRelationship(ctx context.Context, id string) error
	BatchAdd(ctx context.Context, doc *Document) error
}

// Storage interface defines storage operations for the graph
type Storage interface {
	Connect(ctx context.Context) error
	Close() error
	KnowledgeGraph
}
