package visualizer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/visualizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *graph.KnowledgeGraphData {
	return &graph.KnowledgeGraphData{
		Nodes: []graph.Node{
			{ID: "e_alice", Label: "Alice </script><script>alert(1)</script>", Type: graph.LabelPerson},
			{ID: "e_devforge", Label: "DevForge", Type: graph.LabelCompany},
		},
		Edges: []graph.Edge{
			{ID: "e_alice-WORKS_AT-e_devforge", Source: "e_alice", Target: "e_devforge", Type: graph.RelationWorksAt, Weight: 0.3},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := visualizer.NewD3Visualizer("unused.html").WithTitle("Quarterly reports").Render(&buf, sampleGraph())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Quarterly reports</title>")
	assert.Contains(t, out, "Entities: 2, Relationships: 1")
	assert.Contains(t, out, "WORKS_AT")
	assert.Contains(t, out, `<option value="Location">Location</option>`)
	assert.NotContains(t, out, "<script>alert(1)</script>")
}

func TestVisualizeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "graph.html")
	require.NoError(t, visualizer.NewD3Visualizer(path).Visualize(sampleGraph()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "d3.forceSimulation")

	assert.Error(t, visualizer.NewD3Visualizer(path).Visualize(nil))
}
