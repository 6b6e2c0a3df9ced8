package algorithms

import (
	"context"
	"fmt"

	"github.com/athapong/docgraph-mcp/pkg/graph"
)

type TraversalType string

const (
	BFS TraversalType = "BFS"
	DFS TraversalType = "DFS"
)

// Visit is an entity reached by a traversal and its distance in hops from the start.
type Visit struct {
	Entity graph.Entity `json:"entity"`
	Depth  int          `json:"depth"`
}

// GraphTraversal walks a KnowledgeGraph, treating edges as undirected.
// A non-empty relation restricts the walk to edges of that type.
type GraphTraversal struct {
	graph    graph.KnowledgeGraph
	relation graph.RelationType
}

func NewGraphTraversal(g graph.KnowledgeGraph) *GraphTraversal {
	return &GraphTraversal{graph: g}
}

// Along returns a traversal restricted to edges of the given type.
func (t *GraphTraversal) Along(relation graph.RelationType) *GraphTraversal {
	return &GraphTraversal{graph: t.graph, relation: relation}
}

// Traverse returns every entity within maxDepth hops of startID, the start
// included, in visiting order.
func (t *GraphTraversal) Traverse(ctx context.Context, startID string, maxDepth int, traversalType TraversalType) ([]Visit, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative: %d", maxDepth)
	}

	start, err := t.graph.GetEntity(ctx, startID)
	if err != nil {
		return nil, err
	}

	switch traversalType {
	case BFS:
		return t.bfs(ctx, *start, maxDepth)
	case DFS:
		visited := map[string]bool{}
		result := make([]Visit, 0)
		if err := t.dfs(ctx, *start, 0, maxDepth, visited, &result); err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported traversal type: %s", traversalType)
	}
}

func (t *GraphTraversal) bfs(ctx context.Context, start graph.Entity, maxDepth int) ([]Visit, error) {
	visited := map[string]bool{start.ID: true}
	result := []Visit{{Entity: start, Depth: 0}}
	frontier := []graph.Entity{start}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []graph.Entity
		for _, current := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			related, err := t.graph.GetRelatedEntities(ctx, current.ID, t.relation)
			if err != nil {
				return nil, err
			}

			for _, r := range related {
				if visited[r.ID] {
					continue
				}
				visited[r.ID] = true
				result = append(result, Visit{Entity: r, Depth: depth})
				next = append(next, r)
			}
		}
		frontier = next
	}

	return result, nil
}

func (t *GraphTraversal) dfs(ctx context.Context, current graph.Entity, depth, maxDepth int, visited map[string]bool, result *[]Visit) error {
	if visited[current.ID] {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	visited[current.ID] = true
	*result = append(*result, Visit{Entity: current, Depth: depth})
	if depth == maxDepth {
		return nil
	}

	related, err := t.graph.GetRelatedEntities(ctx, current.ID, t.relation)
	if err != nil {
		return err
	}

	for _, r := range related {
		if err := t.dfs(ctx, r, depth+1, maxDepth, visited, result); err != nil {
			return err
		}
	}
	return nil
}

// ShortestPath returns the entities on a shortest path from fromID to toID,
// both ends included, or nil when toID is not reachable within maxDepth hops.
func (t *GraphTraversal) ShortestPath(ctx context.Context, fromID, toID string, maxDepth int) ([]graph.Entity, error) {
	start, err := t.graph.GetEntity(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return []graph.Entity{*start}, nil
	}

	parent := map[string]string{fromID: ""}
	nodes := map[string]graph.Entity{fromID: *start}
	frontier := []string{fromID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			related, err := t.graph.GetRelatedEntities(ctx, id, t.relation)
			if err != nil {
				return nil, err
			}

			for _, r := range related {
				if _, seen := parent[r.ID]; seen {
					continue
				}
				parent[r.ID] = id
				nodes[r.ID] = r
				if r.ID == toID {
					return walkBack(parent, nodes, toID), nil
				}
				next = append(next, r.ID)
			}
		}
		frontier = next
	}

	return nil, nil
}

func walkBack(parent map[string]string, nodes map[string]graph.Entity, id string) []graph.Entity {
	var path []graph.Entity
	for ; id != ""; id = parent[id] {
		path = append([]graph.Entity{nodes[id]}, path...)
	}
	return path
}
