package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Node represents an entity in a merged knowledge graph
type Node struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	Type       Label                  `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Sources    []string               `json:"sources,omitempty"` // Documents where this node was found
}

// Edge represents a relationship between nodes in the knowledge graph
type Edge struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"` // Start node ID
	Target     string                 `json:"target"` // End node ID
	Type       RelationType           `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Weight     float64                `json:"weight"`
}

// KnowledgeGraphData represents a graph of knowledge extracted from documents
type KnowledgeGraphData struct {
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	GeneratedAt time.Time `json:"generated_at"`
}

// EdgeID is the id of the edge carrying rel in a merged graph.
func EdgeID(start string, kind RelationType, end string) string {
	return fmt.Sprintf("%s-%s-%s", start, kind, end)
}

// confidenceWeight maps the confidence markers on relationships to edge weights.
func confidenceWeight(metadata map[string]interface{}) float64 {
	switch metadata["confidence"] {
	case "high":
		return 1.0
	case "medium":
		return 0.6
	case "low":
		return 0.3
	}
	return 0.5
}

func nodeFromEntity(entity *Entity, source string) Node {
	node := Node{
		ID:         entity.ID,
		Label:      entity.Name(),
		Type:       entity.Label,
		Properties: copyMetadata(entity.Metadata),
	}
	if source != "" {
		node.Sources = []string{source}
	}
	return node
}

func entityFromNode(node *Node) Entity {
	return Entity{
		ID:       node.ID,
		Label:    node.Type,
		Metadata: copyMetadata(node.Properties),
	}
}

func appendSource(sources []string, source string) []string {
	if source == "" {
		return sources
	}
	for _, s := range sources {
		if s == source {
			return sources
		}
	}
	return append(sources, source)
}

// MemoryKnowledgeGraph implements the KnowledgeGraph interface with in-memory storage
type MemoryKnowledgeGraph struct {
	nodes  map[string]*Node
	edges  map[string]*Edge
	order  []string // edge ids in insertion order
	mutex  sync.RWMutex
	logger *logrus.Logger
}

// NewMemoryKnowledgeGraph creates a new in-memory knowledge graph
func NewMemoryKnowledgeGraph() *MemoryKnowledgeGraph {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &MemoryKnowledgeGraph{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		logger: logger,
	}
}

// AddEntity adds an entity to the graph, merging sources when it already exists
func (g *MemoryKnowledgeGraph) AddEntity(ctx context.Context, entity *Entity, source string) error {
	if entity == nil || entity.ID == "" {
		return fmt.Errorf("entity must have an id")
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if node, exists := g.nodes[entity.ID]; exists {
		node.Sources = appendSource(node.Sources, source)
		return nil
	}

	node := nodeFromEntity(entity, source)
	g.nodes[entity.ID] = &node
	return nil
}

// AddRelationship adds a relationship to the graph
func (g *MemoryKnowledgeGraph) AddRelationship(ctx context.Context, rel *Relationship) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.nodes[rel.Start] == nil || g.nodes[rel.End] == nil {
		return fmt.Errorf("start or end node not found for %s relationship", rel.Type)
	}

	edgeID := EdgeID(rel.Start, rel.Type, rel.End)
	if edge, exists := g.edges[edgeID]; exists {
		edge.Weight += confidenceWeight(rel.Metadata)
		return nil
	}

	g.edges[edgeID] = &Edge{
		ID:         edgeID,
		Source:     rel.Start,
		Target:     rel.End,
		Type:       rel.Type,
		Properties: copyMetadata(rel.Metadata),
		Weight:     confidenceWeight(rel.Metadata),
	}
	g.order = append(g.order, edgeID)
	return nil
}

// GetEntity retrieves an entity by ID
func (g *MemoryKnowledgeGraph) GetEntity(ctx context.Context, id string) (*Entity, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil, fmt.Errorf("entity not found: %s", id)
	}

	entity := entityFromNode(node)
	return &entity, nil
}

// GetRelatedEntities gets entities related to a given entity in either direction
func (g *MemoryKnowledgeGraph) GetRelatedEntities(ctx context.Context, entityID string, relationType RelationType) ([]Entity, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	related := make([]Entity, 0)
	for _, edgeID := range g.order {
		edge := g.edges[edgeID]
		if relationType != "" && edge.Type != relationType {
			continue
		}

		var other string
		switch entityID {
		case edge.Source:
			other = edge.Target
		case edge.Target:
			other = edge.Source
		default:
			continue
		}

		if node, exists := g.nodes[other]; exists {
			related = append(related, entityFromNode(node))
		}
	}

	return related, nil
}

// DeleteEntity removes an entity and its edges from the graph
func (g *MemoryKnowledgeGraph) DeleteEntity(ctx context.Context, id string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return fmt.Errorf("entity not found: %s", id)
	}

	kept := g.order[:0]
	for _, edgeID := range g.order {
		edge := g.edges[edgeID]
		if edge.Source == id || edge.Target == id {
			delete(g.edges, edgeID)
			continue
		}
		kept = append(kept, edgeID)
	}
	g.order = kept
	delete(g.nodes, id)

	return nil
}

// DeleteRelationship removes a relationship from the graph
func (g *MemoryKnowledgeGraph) DeleteRelationship(ctx context.Context, id string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.edges[id]; !exists {
		return fmt.Errorf("relationship not found: %s", id)
	}

	for i, edgeID := range g.order {
		if edgeID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	delete(g.edges, id)

	return nil
}

// BatchAdd adds every entity and relationship of a structured document
func (g *MemoryKnowledgeGraph) BatchAdd(ctx context.Context, doc *Document) error {
	for i := range doc.Entities {
		if err := g.AddEntity(ctx, &doc.Entities[i], doc.Source); err != nil {
			return err
		}
	}

	for i := range doc.Relationships {
		if err := g.AddRelationship(ctx, &doc.Relationships[i]); err != nil {
			return err
		}
	}

	return nil
}

// GetData returns a snapshot of the graph for serialization or visualization
func (g *MemoryKnowledgeGraph) GetData() *KnowledgeGraphData {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	nodes := make([]Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, *node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]Edge, 0, len(g.order))
	for _, edgeID := range g.order {
		edges = append(edges, *g.edges[edgeID])
	}

	return &KnowledgeGraphData{
		Nodes:       nodes,
		Edges:       edges,
		GeneratedAt: time.Now(),
	}
}

// KnowledgeGraphGenerator merges structured documents into one knowledge graph
type KnowledgeGraphGenerator struct {
	nodes       map[string]Node // map of entity ID to node
	edges       map[string]Edge // map of edge ID to edge
	documentMap map[string]bool // tracking processed document sources
	mutex       sync.RWMutex
	logger      *logrus.Logger
}

// NewKnowledgeGraphGenerator creates a new knowledge graph generator
func NewKnowledgeGraphGenerator() *KnowledgeGraphGenerator {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &KnowledgeGraphGenerator{
		nodes:       make(map[string]Node),
		edges:       make(map[string]Edge),
		documentMap: make(map[string]bool),
		logger:      logger,
	}
}

// SetLogger replaces the generator's logger
func (g *KnowledgeGraphGenerator) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// AddDocument adds a document to the knowledge graph. Entity ids derive from
// the identity key, so the same entity found in several documents merges into
// one node.
func (g *KnowledgeGraphGenerator) AddDocument(doc *Document) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if doc == nil {
		return fmt.Errorf("cannot add nil document to graph")
	}

	// Skip if document was already processed
	if _, exists := g.documentMap[doc.Source]; exists {
		return nil
	}
	g.documentMap[doc.Source] = true

	for i := range doc.Entities {
		entity := &doc.Entities[i]
		node, exists := g.nodes[entity.ID]
		if !exists {
			node = nodeFromEntity(entity, doc.Source)
		} else {
			node.Sources = appendSource(node.Sources, doc.Source)
		}
		g.nodes[entity.ID] = node
	}

	for _, rel := range doc.Relationships {
		_, startExists := g.nodes[rel.Start]
		_, endExists := g.nodes[rel.End]
		if !startExists || !endExists {
			g.logger.WithFields(logrus.Fields{
				"relation": rel.Type,
				"start":    rel.Start,
				"end":      rel.End,
				"source":   doc.Source,
			}).Warn("Skipping relation with unknown entities")
			continue
		}

		edgeID := EdgeID(rel.Start, rel.Type, rel.End)
		if edge, exists := g.edges[edgeID]; exists {
			edge.Weight += confidenceWeight(rel.Metadata)
			edge.Properties["count"] = edge.Properties["count"].(int) + 1
			g.edges[edgeID] = edge
			continue
		}

		properties := copyMetadata(rel.Metadata)
		properties["count"] = 1
		g.edges[edgeID] = Edge{
			ID:         edgeID,
			Source:     rel.Start,
			Target:     rel.End,
			Type:       rel.Type,
			Properties: properties,
			Weight:     confidenceWeight(rel.Metadata),
		}
	}

	return nil
}

// Documents returns how many distinct documents were merged
func (g *KnowledgeGraphGenerator) Documents() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.documentMap)
}

// Generate builds and returns the final knowledge graph, sorted by id
func (g *KnowledgeGraphGenerator) Generate() *KnowledgeGraphData {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	nodes := make([]Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	return &KnowledgeGraphData{
		Nodes:       nodes,
		Edges:       edges,
		GeneratedAt: time.Now(),
	}
}
