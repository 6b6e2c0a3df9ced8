package main

import (
	"os"
	"path/filepath"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/ingest"
	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/docgraph-mcp/pkg/graph/storage"
	"github.com/athapong/docgraph-mcp/pkg/graph/visualizer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <dir>",
	Short: "Merge every document in a directory into one knowledge graph",
	Long: `Graph structures every supported file under dir and merges the results into
a single knowledge graph: one node per entity, one edge per relationship type
between two entities, weighted by how often and how confidently it was seen.
The graph is written as JSON and optionally rendered as a D3 HTML page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := svc.Logger()
		output, _ := cmd.Flags().GetString("output")
		visualize, _ := cmd.Flags().GetBool("visualize")
		vizOutput, _ := cmd.Flags().GetString("viz-output")

		converter := svc.Converter()
		files, err := readInputFiles(args[0], converter)
		if err != nil {
			return errors.Wrap(err, "failed to read input directory")
		}
		if len(files) == 0 {
			return errors.Errorf("no supported files found in %s", args[0])
		}

		logger.WithField("files", len(files)).Info("Processing input files")

		inputs := make([]graph.Input, 0, len(files))
		for _, file := range files {
			text, src, err := converter.Convert(ctx, file)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"file":  file,
					"error": err.Error(),
				}).Error("Failed to convert file")
				continue
			}
			src.Name = file
			inputs = append(inputs, graph.Input{Text: text, Source: src})
		}

		documents, err := svc.Structurer().BatchRun(ctx, inputs)
		if err != nil {
			return errors.Wrap(err, "failed to process documents")
		}

		generator := graph.NewKnowledgeGraphGenerator()
		generator.SetLogger(logger)
		for _, doc := range documents {
			if err := generator.AddDocument(doc); err != nil {
				logger.WithError(err).Error("Failed to add document to graph")
			}
		}
		knowledgeGraph := generator.Generate()
		metrics.RecordGraph(countTypes(knowledgeGraph))

		if err := storage.NewJSONGraphStore(output).StoreGraph(ctx, knowledgeGraph); err != nil {
			return errors.Wrap(err, "failed to store knowledge graph")
		}

		logger.WithFields(logrus.Fields{
			"documents": generator.Documents(),
			"nodes":     len(knowledgeGraph.Nodes),
			"edges":     len(knowledgeGraph.Edges),
			"output":    output,
		}).Info("Knowledge graph saved")

		if visualize {
			viz := visualizer.NewD3Visualizer(vizOutput).WithTitle("Knowledge graph of " + filepath.Base(args[0]))
			if err := viz.Visualize(knowledgeGraph); err != nil {
				return errors.Wrap(err, "failed to visualize knowledge graph")
			}
			logger.WithField("output", vizOutput).Info("Visualization saved")
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().String("output", "knowledge_graph.json", "output file path for the knowledge graph")
	graphCmd.Flags().Bool("visualize", false, "generate a visualization of the knowledge graph")
	graphCmd.Flags().String("viz-output", "knowledge_graph.html", "output file for the visualization")

	rootCmd.AddCommand(graphCmd)
}

// readInputFiles lists the files under inputDir that have a converter.
func readInputFiles(inputDir string, converter *ingest.Pipeline) ([]string, error) {
	var files []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && converter.Supports(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func countTypes(kg *graph.KnowledgeGraphData) (map[string]int, map[string]int) {
	nodeTypes := make(map[string]int)
	for _, n := range kg.Nodes {
		nodeTypes[string(n.Type)]++
	}
	edgeTypes := make(map[string]int)
	for _, e := range kg.Edges {
		edgeTypes[string(e.Type)]++
	}
	return nodeTypes, edgeTypes
}
