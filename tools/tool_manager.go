package tools

import (
	"fmt"
	"strings"
	"sync"

	"github.com/athapong/docgraph-mcp/pkg/graph/processors"
	"github.com/athapong/docgraph-mcp/services"
	"github.com/athapong/docgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type toolGroup struct {
	name  string
	desc  string
	tools func(svc *services.Services) []server.ServerTool
}

var toolGroups = []toolGroup{
	{"structure", "Paragraph, entity and relationship extraction", StructureTools},
	{"graph", "Document indexing and knowledge graph lookup", GraphTools},
	{"search", "Semantic paragraph search", SearchTools},
	{"fetch", "Web content fetching", func(*services.Services) []server.ServerTool {
		return FetchTools(processors.NewURLConverter(nil))
	}},
}

func findGroup(name string) (toolGroup, bool) {
	for _, g := range toolGroups {
		if g.name == name {
			return g, true
		}
	}
	return toolGroup{}, false
}

// toolManager adds and removes tool groups on the running server.
type toolManager struct {
	server *server.MCPServer
	svc    *services.Services

	mu  sync.Mutex
	all bool
	// enabled is only meaningful when all is false.
	enabled []string
}

func RegisterToolManagerTool(s *server.MCPServer, svc *services.Services) {
	m := &toolManager{
		server:  s,
		svc:     svc,
		all:     len(svc.Config().Server.EnableTools) == 0,
		enabled: append([]string(nil), svc.Config().Server.EnableTools...),
	}

	tool := mcp.NewTool("tool_manager",
		mcp.WithDescription("Manage MCP tools - enable or disable tools"),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action to perform: list, enable, disable")),
		mcp.WithString("tool_name", mcp.Description("Tool name to enable/disable")),
	)

	s.AddTool(tool, util.ErrorGuard(util.AdaptLegacyHandler(m.handle)))
}

func (m *toolManager) handle(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	action, ok := arguments["action"].(string)
	if !ok {
		return mcp.NewToolResultError("action must be a string"), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	allEnabled := m.all

	switch action {
	case "list":
		response := "Available tools:\n"
		response += "- tool_manager (Tool management) [enabled]\n"
		for _, g := range toolGroups {
			status := "disabled"
			if allEnabled || contains(m.enabled, g.name) {
				status = "enabled"
			}
			response += fmt.Sprintf("- %s (%s) [%s]\n", g.name, g.desc, status)
		}
		response += "\n"

		response += "Currently enabled tools:\n"
		if allEnabled {
			response += "All tools are enabled (ENABLE_TOOLS is empty)\n"
		} else {
			for _, name := range m.enabled {
				response += fmt.Sprintf("- %s\n", name)
			}
		}
		return mcp.NewToolResultText(response), nil

	case "enable", "disable":
		toolName, ok := arguments["tool_name"].(string)
		if !ok || toolName == "" {
			return mcp.NewToolResultError("tool_name is required for enable/disable actions"), nil
		}
		group, ok := findGroup(toolName)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tool %q", toolName)), nil
		}

		tools := group.tools(m.svc)
		if action == "enable" {
			if !allEnabled && !contains(m.enabled, toolName) {
				m.enabled = append(m.enabled, toolName)
			}
			m.server.AddTools(tools...)
		} else {
			if allEnabled {
				m.all = false
				for _, g := range toolGroups {
					m.enabled = append(m.enabled, g.name)
				}
			}
			m.enabled = removeString(m.enabled, toolName)
			m.server.DeleteTools(toolNames(tools)...)
		}

		return mcp.NewToolResultText(fmt.Sprintf("Successfully %sd tool: %s (%s)", action, toolName, strings.Join(toolNames(tools), ", "))), nil

	default:
		return mcp.NewToolResultError("Invalid action. Use 'list', 'enable', or 'disable'"), nil
	}
}

func toolNames(tools []server.ServerTool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Tool.Name
	}
	return names
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func removeString(slice []string, item string) []string {
	result := []string{}
	for _, s := range slice {
		if s != item {
			result = append(result, s)
		}
	}
	return result
}
