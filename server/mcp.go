package server

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teranos/umi/version"
)

// MCPServer exposes generation and vocabulary lookups as MCP tools.
type MCPServer struct {
	server *Server
	mcp    *mcpserver.MCPServer
}

// NewMCPServer wraps s for the Model Context Protocol.
func NewMCPServer(s *Server) *MCPServer {
	m := &MCPServer{
		server: s,
		mcp: mcpserver.NewMCPServer(
			"umi",
			version.Get().Version,
			mcpserver.WithToolCapabilities(true),
		),
	}
	m.registerTools()
	return m
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (m *MCPServer) ServeStdio() error {
	return mcpserver.ServeStdio(m.mcp)
}

func (m *MCPServer) registerTools() {
	generateTool := mcp.NewTool("umi_generate",
		mcp.WithDescription("Expand a wildcard prompt template into concrete prompts"),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template with __list__, <[tag]>, {a|b} and @@setting=value@@ placeholders"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Seed of the first image (default: random)"),
		),
		mcp.WithNumber("batch_size",
			mcp.Description("Images per batch (default: 1)"),
		),
		mcp.WithString("ratio",
			mcp.Description("Aspect preset such as 2:3 or 16:9"),
		),
	)
	m.mcp.AddTool(generateTool, m.handleGenerate)

	tagsTool := mcp.NewTool("umi_tags",
		mcp.WithDescription("List entry titles matching a tag query, or every tag when no query is given"),
		mcp.WithString("query",
			mcp.Description("Comma-separated tag groups: 'red', '--formal', 'blue|green'"),
		),
		mcp.WithString("scope",
			mcp.Description("Restrict matches to one structured source"),
		),
	)
	m.mcp.AddTool(tagsTool, m.handleTags)

	filesTool := mcp.NewTool("umi_files",
		mcp.WithDescription("List the loaded wildcard source files"),
	)
	m.mcp.AddTool(filesTool, m.handleFiles)
}

func (m *MCPServer) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := GenerateRequest{
		Template:  template,
		BatchSize: request.GetInt("batch_size", 0),
		Ratio:     request.GetString("ratio", ""),
	}
	if seed, err := request.RequireInt("seed"); err == nil {
		s := int64(seed)
		req.Seed = &s
	}

	resp, err := m.server.generate(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("Failed to generate: " + err.Error()), nil
	}
	return jsonResult(resp)
}

func (m *MCPServer) handleTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := m.server.store
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return jsonResult(TagsResponse{Tags: store.Tags(), Titles: []string{}})
	}

	groups := strings.Split(query, ",")
	scope := request.GetString("scope", "")
	titles := store.QueryTags(scope, groups)
	if titles == nil {
		titles = []string{}
	}
	return jsonResult(TagsResponse{Query: groups, Scope: scope, Titles: titles})
}

func (m *MCPServer) handleFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := m.server.store
	return jsonResult(FilesResponse{Files: store.Files(), Stats: store.Stats(), Misses: store.Misses()})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("Failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
