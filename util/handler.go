package util

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ErrorGuard turns handler errors and panics into tool error results so the
// client sees the message instead of a dropped request.
func ErrorGuard(handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"tool":  request.Params.Name,
					"panic": fmt.Sprint(r),
					"stack": string(debug.Stack()),
				}).Error("Tool handler panicked")
				result, err = mcp.NewToolResultErrorf("%s failed: %v", request.Params.Name, r), nil
			}
		}()

		result, err = handler(ctx, request)
		if err != nil {
			return mcp.NewToolResultErrorFromErr(request.Params.Name+" failed", err), nil
		}
		return result, nil
	}
}

// AdaptLegacyHandler wraps a handler that only needs the argument map.
func AdaptLegacyHandler(handler func(arguments map[string]interface{}) (*mcp.CallToolResult, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments := request.GetArguments()
		if arguments == nil {
			arguments = map[string]interface{}{}
		}
		return handler(arguments)
	}
}
