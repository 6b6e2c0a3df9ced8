package tools

import (
	"context"
	"fmt"

	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/athapong/docgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterFetchTool(s *server.MCPServer) {
	s.AddTools(FetchTools(processors.NewURLConverter(nil))...)
}

func FetchTools(fetcher *processors.URLConverter) []server.ServerTool {
	tool := mcp.NewTool("get_web_content",
		mcp.WithDescription("Fetches content from a given HTTP/HTTPS URL. HTML pages are converted to Markdown; other text content is returned as is."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The complete HTTP/HTTPS URL to fetch content from (e.g., https://example.com)"),
		),
	)

	return []server.ServerTool{{Tool: tool, Handler: util.ErrorGuard(fetchHandler(fetcher))}}
}

func fetchHandler(fetcher *processors.URLConverter) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url must be a string"), nil
		}

		content, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch URL: %s", err)), nil
		}
		return mcp.NewToolResultText(content), nil
	}
}
