package tools

import (
	"context"

	"github.com/athapong/docgraph-mcp/services"
	"github.com/athapong/docgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterSearchTool(s *server.MCPServer, svc *services.Services) {
	s.AddTools(SearchTools(svc)...)
}

func SearchTools(svc *services.Services) []server.ServerTool {
	searchTool := mcp.NewTool("graph_search",
		mcp.WithDescription("Semantic search over indexed paragraphs. Each hit comes with the neighbouring paragraphs and the entities it mentions."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits"), mcp.DefaultNumber(5), mcp.Min(1), mcp.Max(50)),
	)

	return []server.ServerTool{
		{Tool: searchTool, Handler: util.ErrorGuard(searchHandler(svc))},
	}
}

func searchHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := request.GetInt("limit", 5)

		retriever, err := svc.Retriever()
		if err != nil {
			return nil, err
		}

		hits, err := retriever.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			return mcp.NewToolResultText("No results found that match the query with the current threshold."), nil
		}
		return jsonResult(hits)
	}
}
