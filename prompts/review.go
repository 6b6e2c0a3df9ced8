package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterReviewPrompts(s *server.MCPServer) {
	prompt := mcp.NewPrompt("review_document_graph",
		mcp.WithPromptDescription("Structure a document and review the extracted entities and relationships"),
		mcp.WithArgument("path", mcp.RequiredArgument(), mcp.ArgumentDescription("Path to the document to review")),
		mcp.WithArgument("focus", mcp.ArgumentDescription("Entity label or relationship type to pay most attention to")),
	)
	s.AddPrompt(prompt, reviewDocumentGraphHandler)
}

func reviewDocumentGraphHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path := request.Params.Arguments["path"]
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	text := fmt.Sprintf("Use the structure_file tool on %s. For every paragraph, check that the listed entities are really mentioned in its text "+
		"and carry the right label (Person, Company, Location, Concept). Then check each relationship against the paragraph it came from "+
		"and flag low confidence co-occurrence links that the text does not support. Finish with a short list of missed entities.", path)
	if focus := request.Params.Arguments["focus"]; focus != "" {
		text += fmt.Sprintf(" Pay most attention to %s.", focus)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of the graph extracted from %s", path),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}, nil
}
