package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SvenST89/osint-mcp-experiment/pkg/version"
)

// GetVersionTool returns the tool definition for version information.
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version information for this Overpass MCP server"),
	)
}

// HandleGetVersion returns the build version information.
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := version.Get()
	resultBytes, err := json.Marshal(info)
	if err != nil {
		return ErrorResponse("Failed to generate version information"), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
