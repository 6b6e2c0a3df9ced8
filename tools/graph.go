package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/pkg/graph/algorithms"
	"github.com/athapong/docgraph-mcp/services"
	"github.com/athapong/docgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterGraphTools(s *server.MCPServer, svc *services.Services) {
	s.AddTools(GraphTools(svc)...)
}

// GraphTools index documents into the configured stores and query the resulting graph.
func GraphTools(svc *services.Services) []server.ServerTool {
	indexTool := mcp.NewTool("graph_index_file",
		mcp.WithDescription("Structure a local file and store it in every configured sink: the local document store, Qdrant (paragraph vectors) and Neo4j (entity graph). Sinks that are not configured are skipped."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the local file to be indexed")),
	)

	relationTypes := make([]string, 0, 5)
	for _, t := range []graph.RelationType{graph.RelationWorksAt, graph.RelationLocatedIn, graph.RelationFounded, graph.RelationOwns, graph.RelationRelatedTo} {
		relationTypes = append(relationTypes, string(t))
	}

	relatedTool := mcp.NewTool("graph_related_entities",
		mcp.WithDescription("Find entities connected to an entity in the knowledge graph built from indexed documents. Identify the entity by id or by name."),
		mcp.WithString("entity_id", mcp.Description("Entity id as returned by the structure tools")),
		mcp.WithString("name", mcp.Description("Entity name, matched case-insensitively when entity_id is not given")),
		mcp.WithString("relation_type", mcp.Description("Only follow relationships of this type"), mcp.Enum(relationTypes...)),
		mcp.WithNumber("depth", mcp.Description("Maximum number of hops"), mcp.DefaultNumber(1), mcp.Min(1), mcp.Max(5)),
		mcp.WithString("traversal", mcp.Description("Traversal order"), mcp.Enum(string(algorithms.BFS), string(algorithms.DFS)), mcp.DefaultString(string(algorithms.BFS))),
	)

	return []server.ServerTool{
		{Tool: indexTool, Handler: util.ErrorGuard(indexFileHandler(svc))},
		{Tool: relatedTool, Handler: util.ErrorGuard(relatedEntitiesHandler(svc))},
	}
}

type indexResult struct {
	Source        string            `json:"source"`
	Paragraphs    int               `json:"paragraphs"`
	Entities      int               `json:"entities"`
	Relationships int               `json:"relationships"`
	Stored        []string          `json:"stored"`
	Failed        map[string]string `json:"failed,omitempty"`
}

func indexFileHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, report, err := svc.Ingest().RunWithReport(ctx, path)
		if err != nil {
			return nil, err
		}

		return jsonResult(indexResult{
			Source:        doc.Source,
			Paragraphs:    len(doc.Paragraphs),
			Entities:      len(doc.Entities),
			Relationships: len(doc.Relationships),
			Stored:        report.Stored,
			Failed:        report.Failed,
		})
	}
}

type relatedResult struct {
	Entity  graph.Entity       `json:"entity"`
	Related []algorithms.Visit `json:"related"`
}

func relatedEntitiesHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("entity_id", "")
		if id == "" {
			name := request.GetString("name", "")
			if name == "" {
				return mcp.NewToolResultError("either entity_id or name is required"), nil
			}
			var err error
			if id, err = findEntityID(ctx, svc, name); err != nil {
				return nil, err
			}
		}

		relation := graph.RelationType(request.GetString("relation_type", ""))
		if relation != "" && !relation.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown relation_type %q", relation)), nil
		}
		depth := request.GetInt("depth", 1)
		if depth < 1 {
			depth = 1
		}
		order := algorithms.TraversalType(strings.ToUpper(request.GetString("traversal", string(algorithms.BFS))))

		kg, err := svc.KnowledgeGraph(ctx)
		if err != nil {
			return nil, err
		}

		visits, err := algorithms.NewGraphTraversal(kg).Along(relation).Traverse(ctx, id, depth, order)
		if err != nil {
			return nil, err
		}

		return jsonResult(relatedResult{Entity: visits[0].Entity, Related: visits[1:]})
	}
}

// findEntityID looks the name up in the stored documents. The first match in
// source order wins.
func findEntityID(ctx context.Context, svc *services.Services, name string) (string, error) {
	docs, err := svc.DocumentStore().List(ctx)
	if err != nil {
		return "", err
	}
	for _, doc := range docs {
		for _, e := range doc.Entities {
			if strings.EqualFold(e.Name(), name) {
				return e.ID, nil
			}
		}
	}
	return "", fmt.Errorf("no indexed entity named %q", name)
}
