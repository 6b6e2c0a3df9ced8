package tools

import (
	"context"
	"encoding/json"

	"github.com/athapong/docgraph-mcp/pkg/graph"
	"github.com/athapong/docgraph-mcp/services"
	"github.com/athapong/docgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterStructureTools(s *server.MCPServer, svc *services.Services) {
	s.AddTools(StructureTools(svc)...)
}

// StructureTools extract paragraphs, entities and relationships without storing anything.
func StructureTools(svc *services.Services) []server.ServerTool {
	textTool := mcp.NewTool("structure_text",
		mcp.WithDescription("Split text into paragraphs and extract the people, companies, locations and concepts it mentions, with the relationships between them. Returns the structured document as JSON."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw document text")),
		mcp.WithString("name", mcp.Description("Source name recorded on the document"), mcp.DefaultString("text")),
	)

	fileTool := mcp.NewTool("structure_file",
		mcp.WithDescription("Convert a local file (txt, md, pdf, docx, csv, html, json) to text and structure it. Returns the structured document as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the local file")),
	)

	urlTool := mcp.NewTool("structure_url",
		mcp.WithDescription("Fetch an HTTP/HTTPS page, convert it to text and structure it. Returns the structured document as JSON."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The complete HTTP/HTTPS URL (e.g., https://example.com)")),
	)

	return []server.ServerTool{
		{Tool: textTool, Handler: util.ErrorGuard(structureTextHandler(svc))},
		{Tool: fileTool, Handler: util.ErrorGuard(structureFileHandler(svc))},
		{Tool: urlTool, Handler: util.ErrorGuard(structureURLHandler(svc))},
	}
}

func structureTextHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name := request.GetString("name", "text")

		doc := svc.Structurer().Run(text, graph.Source{Name: name, Type: "text"})
		return jsonResult(doc)
	}
}

func structureFileHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := svc.Converter().Structure(ctx, path)
		if err != nil {
			return nil, err
		}
		return jsonResult(doc)
	}
}

func structureURLHandler(svc *services.Services) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := svc.Converter().RunURL(ctx, url)
		if err != nil {
			return nil, err
		}
		return jsonResult(doc)
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
