package visualizer

import (
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
)

// labelColors gives each entity category a fixed color so graphs rendered
// from different corpora stay comparable.
var labelColors = map[graph.Label]string{
	graph.LabelPerson:   "#1f77b4",
	graph.LabelCompany:  "#ff7f0e",
	graph.LabelLocation: "#2ca02c",
	graph.LabelConcept:  "#9467bd",
}

var page = template.Must(template.New("d3").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body { margin: 0; font-family: Arial, sans-serif; }
        #graph { width: 100%; height: 100vh; background-color: #f5f5f5; }
        .link { stroke: #999; stroke-opacity: 0.6; }
        .link-label { font-size: 8px; fill: #666; pointer-events: none; }
        .node { stroke: #fff; stroke-width: 1.5px; }
        .node-label { font-size: 10px; pointer-events: none; }
        .controls {
            position: absolute; top: 10px; left: 10px; padding: 10px;
            background-color: rgba(255,255,255,0.85); border-radius: 5px;
        }
        .swatch { display: inline-block; width: 10px; height: 10px; margin-right: 4px; }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>{{.Title}}</h3>
        <p>Entities: {{.NodeCount}}, Relationships: {{.EdgeCount}}</p>
        <div>{{range .Legend}}<span class="swatch" style="background: {{.Color}}"></span>{{.Label}} {{end}}</div>
        <label for="label-filter">Category:</label>
        <select id="label-filter">
            <option value="all">All</option>
            {{range .Legend}}<option value="{{.Label}}">{{.Label}}</option>{{end}}
        </select>
    </div>

    <script>
        const graphData = {{.Graph}};
        const colors = {{.Colors}};
        const nodes = graphData.nodes || [];
        const edges = graphData.edges || [];

        const simulation = d3.forceSimulation(nodes)
            .force("link", d3.forceLink(edges).id(d => d.id).distance(120))
            .force("charge", d3.forceManyBody().strength(-300))
            .force("center", d3.forceCenter(window.innerWidth / 2, window.innerHeight / 2));

        const svg = d3.select("#graph").append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => g.attr("transform", event.transform)));
        const g = svg.append("g");

        const link = g.append("g").selectAll("line").data(edges).enter().append("line")
            .attr("class", "link")
            .attr("stroke-width", d => 1 + Math.sqrt(d.weight) * 2);
        link.append("title").text(d => d.type + " (weight " + d.weight.toFixed(1) + ")");

        const linkLabel = g.append("g").selectAll("text").data(edges).enter().append("text")
            .attr("class", "link-label")
            .text(d => d.type);

        const node = g.append("g").selectAll("circle").data(nodes).enter().append("circle")
            .attr("class", "node")
            .attr("r", d => 6 + 2 * Math.min((d.sources || []).length, 5))
            .attr("fill", d => colors[d.type] || "#7f7f7f")
            .call(d3.drag()
                .on("start", (event, d) => { if (!event.active) simulation.alphaTarget(0.3).restart(); d.fx = d.x; d.fy = d.y; })
                .on("drag", (event, d) => { d.fx = event.x; d.fy = event.y; })
                .on("end", (event, d) => { if (!event.active) simulation.alphaTarget(0); d.fx = null; d.fy = null; }));
        node.append("title").text(d => d.label + " (" + d.type + ")\n" + (d.sources || []).join("\n"));

        const label = g.append("g").selectAll("text").data(nodes).enter().append("text")
            .attr("class", "node-label")
            .attr("dx", 12)
            .attr("dy", ".35em")
            .text(d => d.label);

        simulation.on("tick", () => {
            link.attr("x1", d => d.source.x).attr("y1", d => d.source.y)
                .attr("x2", d => d.target.x).attr("y2", d => d.target.y);
            linkLabel.attr("x", d => (d.source.x + d.target.x) / 2)
                .attr("y", d => (d.source.y + d.target.y) / 2);
            node.attr("cx", d => d.x).attr("cy", d => d.y);
            label.attr("x", d => d.x).attr("y", d => d.y);
        });

        d3.select("#label-filter").on("change", function() {
            const selected = this.value;
            const shown = d => selected === "all" || d.type === selected;
            node.style("visibility", d => shown(d) ? "visible" : "hidden");
            label.style("visibility", d => shown(d) ? "visible" : "hidden");
            const edgeShown = d => shown(d.source) || shown(d.target) ? "visible" : "hidden";
            link.style("visibility", edgeShown);
            linkLabel.style("visibility", edgeShown);
        });
    </script>
</body>
</html>
`))

type legendEntry struct {
	Label graph.Label
	Color string
}

type pageData struct {
	Title     string
	Graph     *graph.KnowledgeGraphData
	Colors    map[graph.Label]string
	Legend    []legendEntry
	NodeCount int
	EdgeCount int
}

// D3Visualizer creates D3.js-based visualizations of knowledge graphs
type D3Visualizer struct {
	outputPath string
	title      string
}

// NewD3Visualizer creates a new D3.js visualizer
func NewD3Visualizer(outputPath string) *D3Visualizer {
	return &D3Visualizer{
		outputPath: outputPath,
		title:      "Knowledge Graph",
	}
}

// WithTitle sets the page heading.
func (v *D3Visualizer) WithTitle(title string) *D3Visualizer {
	if title != "" {
		v.title = title
	}
	return v
}

// Render writes the HTML page for kg to w. The graph is embedded as a
// JavaScript literal escaped by html/template.
func (v *D3Visualizer) Render(w io.Writer, kg *graph.KnowledgeGraphData) error {
	if kg == nil {
		return errors.New("cannot render nil graph")
	}

	legend := make([]legendEntry, 0, len(graph.Labels))
	for _, l := range graph.Labels {
		legend = append(legend, legendEntry{Label: l, Color: labelColors[l]})
	}

	return errors.Wrap(page.Execute(w, pageData{
		Title:     v.title,
		Graph:     kg,
		Colors:    labelColors,
		Legend:    legend,
		NodeCount: len(kg.Nodes),
		EdgeCount: len(kg.Edges),
	}), "rendering graph page")
}

// Visualize generates an HTML visualization of the knowledge graph
func (v *D3Visualizer) Visualize(kg *graph.KnowledgeGraphData) error {
	if err := os.MkdirAll(filepath.Dir(v.outputPath), 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	f, err := os.Create(v.outputPath)
	if err != nil {
		return errors.Wrap(err, "creating visualization file")
	}
	defer f.Close()

	return v.Render(f, kg)
}
