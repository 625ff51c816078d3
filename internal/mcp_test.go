package internal

import (
	"context"
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
	require.True(t, ok)
	return text.Text
}

func TestMCPProcessVideo(t *testing.T) {
	f := newAppFixture(t, nil)
	s := NewMCPServer(f.app, "test", discardLogger())

	result := callTool(t, s.handleProcessVideo, map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"})
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"summary": "A summary."`)

	result = callTool(t, s.handleProcessVideo, map[string]any{})
	assert.True(t, result.IsError)
}

func TestMCPAskQuestionWithHistory(t *testing.T) {
	f := newAppFixture(t, nil)
	s := NewMCPServer(f.app, "test", discardLogger())

	result := callTool(t, s.handleAskQuestion, map[string]any{
		"url":      "https://youtu.be/dQw4w9WgXcQ",
		"question": "Why?",
		"history": []any{
			map[string]any{"role": "user", "content": "hi"},
			map[string]any{"role": "assistant", "content": "hello"},
		},
	})
	assert.False(t, result.IsError)
	assert.Equal(t, "An answer.", resultText(t, result))
	assert.Len(t, f.chat.Requests()[0].Messages, 4)

	result = callTool(t, s.handleAskQuestion, map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ", "question": "Why?", "history": "nope"})
	assert.True(t, result.IsError)
}

func TestMCPTranscriptUnavailable(t *testing.T) {
	f := newAppFixture(t, nil)
	f.captions.err = ErrTranscriptsDisabled
	s := NewMCPServer(f.app, "test", discardLogger())

	result := callTool(t, s.handleGetTranscript, map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"})
	assert.True(t, result.IsError)
}

func TestFormatMetadata(t *testing.T) {
	text := FormatMetadata(&VideoMetadata{
		Title:       "Never Gonna Give You Up",
		Channel:     "Rick Astley",
		Duration:    212,
		HasCaptions: true,
		Tags:        []string{"80s", "pop"},
		Chapters:    []VideoChapter{{StartTime: 0, EndTime: 30, Title: "Intro"}},
	})

	assert.Contains(t, text, "Title: Never Gonna Give You Up\n")
	assert.Contains(t, text, "Duration: 212 seconds\n")
	assert.Contains(t, text, "Has Captions: true\n")
	assert.Contains(t, text, "Tags: 80s, pop\n")
	assert.Contains(t, text, "Chapter (0-30): Intro\n")
}
