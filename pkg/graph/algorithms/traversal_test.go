package algorithms_test

import (
	"context"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/algorithms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds alice -WORKS_AT-> devforge -LOCATED_IN-> bangalore, plus
// bob -WORKS_AT-> devforge.
func chain(t *testing.T) *graph.MemoryKnowledgeGraph {
	t.Helper()
	ctx := context.Background()
	g := graph.NewMemoryKnowledgeGraph()

	for _, e := range []graph.Entity{
		{ID: "alice", Label: graph.LabelPerson, Metadata: map[string]interface{}{"name": "Alice"}},
		{ID: "bob", Label: graph.LabelPerson, Metadata: map[string]interface{}{"name": "Bob"}},
		{ID: "devforge", Label: graph.LabelCompany, Metadata: map[string]interface{}{"name": "DevForge"}},
		{ID: "bangalore", Label: graph.LabelLocation, Metadata: map[string]interface{}{"name": "Bangalore"}},
		{ID: "island", Label: graph.LabelConcept, Metadata: map[string]interface{}{"name": "Island"}},
	} {
		require.NoError(t, g.AddEntity(ctx, &e, "test"))
	}

	for _, r := range []graph.Relationship{
		{Start: "alice", End: "devforge", Type: graph.RelationWorksAt},
		{Start: "devforge", End: "bangalore", Type: graph.RelationLocatedIn},
		{Start: "bob", End: "devforge", Type: graph.RelationWorksAt},
	} {
		require.NoError(t, g.AddRelationship(ctx, &r))
	}
	return g
}

func ids(visits []algorithms.Visit) []string {
	out := make([]string, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.Entity.ID)
	}
	return out
}

func TestTraverse(t *testing.T) {
	tr := algorithms.NewGraphTraversal(chain(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     algorithms.TraversalType
		depth    int
		expected []string
	}{
		{"bfs start only", algorithms.BFS, 0, []string{"alice"}},
		{"bfs one hop", algorithms.BFS, 1, []string{"alice", "devforge"}},
		{"bfs two hops", algorithms.BFS, 2, []string{"alice", "devforge", "bangalore", "bob"}},
		{"dfs two hops", algorithms.DFS, 2, []string{"alice", "devforge", "bangalore", "bob"}},
		{"dfs one hop", algorithms.DFS, 1, []string{"alice", "devforge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visits, err := tr.Traverse(ctx, "alice", tt.depth, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(visits))
		})
	}

	visits, err := tr.Traverse(ctx, "alice", 2, algorithms.BFS)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 2}, []int{visits[0].Depth, visits[1].Depth, visits[2].Depth, visits[3].Depth})
}

func TestTraverseAlongRelation(t *testing.T) {
	tr := algorithms.NewGraphTraversal(chain(t)).Along(graph.RelationWorksAt)

	visits, err := tr.Traverse(context.Background(), "alice", 3, algorithms.BFS)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "devforge", "bob"}, ids(visits))
}

func TestTraverseErrors(t *testing.T) {
	tr := algorithms.NewGraphTraversal(chain(t))
	ctx := context.Background()

	_, err := tr.Traverse(ctx, "nobody", 2, algorithms.BFS)
	assert.Error(t, err)

	_, err = tr.Traverse(ctx, "alice", 2, "random")
	assert.Error(t, err)

	_, err = tr.Traverse(ctx, "alice", -1, algorithms.DFS)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tr.Traverse(cancelled, "alice", 2, algorithms.BFS)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShortestPath(t *testing.T) {
	tr := algorithms.NewGraphTraversal(chain(t))
	ctx := context.Background()

	path, err := tr.ShortestPath(ctx, "alice", "bangalore", 3)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "alice", path[0].ID)
	assert.Equal(t, "devforge", path[1].ID)
	assert.Equal(t, "bangalore", path[2].ID)

	path, err = tr.ShortestPath(ctx, "alice", "bangalore", 1)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = tr.ShortestPath(ctx, "alice", "island", 5)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = tr.ShortestPath(ctx, "alice", "alice", 0)
	require.NoError(t, err)
	require.Len(t, path, 1)
}
