package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestMCP_Generate(t *testing.T) {
	m := NewMCPServer(newTestServer(t, Config{}, false))

	result := callTool(t, m.handleGenerate, map[string]any{
		"template":   "__colors__ @@width=640@@",
		"seed":       float64(3),
		"batch_size": float64(2),
	})
	require.False(t, result.IsError, resultText(t, result))

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Len(t, resp.Batch.Images, 2)
	assert.Equal(t, int64(3), resp.Batch.Images[0].Seed)
	require.NotNil(t, resp.Batch.Overrides.Width)
	assert.Equal(t, 640, *resp.Batch.Overrides.Width)
}

func TestMCP_GenerateRequiresTemplate(t *testing.T) {
	m := NewMCPServer(newTestServer(t, Config{}, false))

	assert.True(t, callTool(t, m.handleGenerate, map[string]any{}).IsError)

	result := callTool(t, m.handleGenerate, map[string]any{"template": "x", "ratio": "nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown ratio")
}

func TestMCP_Tags(t *testing.T) {
	m := NewMCPServer(newTestServer(t, Config{}, false))

	var resp TagsResponse
	text := resultText(t, callTool(t, m.handleTags, map[string]any{"query": "clothing, --formal"}))
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, []string{"Blue Jeans"}, resp.Titles)

	resp = TagsResponse{}
	text = resultText(t, callTool(t, m.handleTags, map[string]any{}))
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Contains(t, resp.Tags, "formal")
}

func TestMCP_Files(t *testing.T) {
	m := NewMCPServer(newTestServer(t, Config{}, false))

	var resp FilesResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, callTool(t, m.handleFiles, nil))), &resp))
	assert.Contains(t, resp.Files, "animals.txt")
	assert.Equal(t, len(resp.Files), resp.Stats.Lists+resp.Stats.Structured)
}
