package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the application as MCP tools
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	mcpServer := server.NewMCPServer(
		"eduvision-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	urlParam := mcp.WithString("url",
		mcp.Description("YouTube video URL"),
		mcp.Required(),
	)

	s.mcpServer.AddTool(mcp.NewTool("process_video",
		mcp.WithDescription("Fetch the captions of a YouTube video and return its transcript, a summary of about 250 words and up to 10 multiple-choice questions as JSON. Results are cached per video."),
		urlParam,
	), s.handleProcessVideo)

	s.mcpServer.AddTool(mcp.NewTool("refresh_questions",
		mcp.WithDescription("Generate a new set of multiple-choice questions for a YouTube video, replacing the cached set."),
		urlParam,
	), s.handleRefreshQuestions)

	s.mcpServer.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question about a YouTube video using only its transcript. Pass earlier turns in history to continue a conversation."),
		urlParam,
		mcp.WithString("question",
			mcp.Description("The question to answer"),
			mcp.Required(),
		),
		mcp.WithArray("history",
			mcp.Description("Prior conversation turns, oldest first"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"role":    map[string]any{"type": "string", "enum": []string{"user", "assistant"}},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"role", "content"},
			}),
		),
	), s.handleAskQuestion)

	s.mcpServer.AddTool(mcp.NewTool("get_youtube_transcript",
		mcp.WithDescription("Get the whitespace-normalized caption transcript of a YouTube video. Fails if the video has no captions."),
		urlParam,
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("get_youtube_metadata",
		mcp.WithDescription("Extract video metadata including caption availability. Check 'Has Captions' before calling the other tools."),
		urlParam,
	), s.handleGetMetadata)
}

func (s *MCPServer) handleProcessVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	s.logger.Info("process_video called", "url", url)
	result, err := s.app.ProcessVideo(ctx, url)
	if err != nil {
		s.logger.Error("process_video failed", "url", url, "error", err)
		return mcp.NewToolResultErrorFromErr("processing video failed", err), nil
	}
	return jsonResult(result)
}

func (s *MCPServer) handleRefreshQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	s.logger.Info("refresh_questions called", "url", url)
	questions, err := s.app.RefreshQuestions(ctx, url)
	if err != nil {
		s.logger.Error("refresh_questions failed", "url", url, "error", err)
		return mcp.NewToolResultErrorFromErr("refreshing questions failed", err), nil
	}
	return jsonResult(QuestionsResponse{Questions: questions})
}

func (s *MCPServer) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}

	history, err := historyArg(request.GetArguments()["history"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.logger.Info("ask_question called", "url", url, "history_turns", len(history))
	answer, err := s.app.AskQuestion(ctx, url, question, history)
	if err != nil {
		s.logger.Error("ask_question failed", "url", url, "error", err)
		return mcp.NewToolResultErrorFromErr("answering question failed", err), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	transcript, _, err := s.app.Transcript(ctx, url)
	if err != nil {
		s.logger.Error("get_youtube_transcript failed", "url", url, "error", err)
		return mcp.NewToolResultErrorFromErr("no transcript available - use get_youtube_metadata to check caption availability", err), nil
	}
	return mcp.NewToolResultText(transcript), nil
}

func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	metadata, err := s.app.Metadata(ctx, url)
	if err != nil {
		s.logger.Error("get_youtube_metadata failed", "url", url, "error", err)
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}
	return mcp.NewToolResultText(FormatMetadata(metadata)), nil
}

// FormatMetadata renders metadata as labelled lines
func FormatMetadata(metadata *VideoMetadata) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Title: %s\n", metadata.Title)
	fmt.Fprintf(&buf, "Channel: %s\n", metadata.Channel)
	fmt.Fprintf(&buf, "Duration: %.0f seconds\n", metadata.Duration)
	fmt.Fprintf(&buf, "Description: %s\n", metadata.Description)
	fmt.Fprintf(&buf, "Has Captions: %t\n", metadata.HasCaptions)

	if len(metadata.Tags) > 0 {
		fmt.Fprintf(&buf, "Tags: %s\n", strings.Join(metadata.Tags, ", "))
	}
	if len(metadata.Categories) > 0 {
		fmt.Fprintf(&buf, "Categories: %s\n", strings.Join(metadata.Categories, ", "))
	}
	for _, ch := range metadata.Chapters {
		fmt.Fprintf(&buf, "Chapter (%.0f-%.0f): %s\n", ch.StartTime, ch.EndTime, ch.Title)
	}
	return buf.String()
}

// historyArg converts the loosely typed history argument into chat turns
func historyArg(raw any) ([]ChatTurn, error) {
	if raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("history must be an array of {role, content} objects: %w", err)
	}
	var history []ChatTurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("history must be an array of {role, content} objects: %w", err)
	}
	return history, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Info("starting MCP server", "transport", "http", "addr", addr)
		return httpServer.Start(addr)
	}

	s.logger.Info("starting MCP server", "transport", "stdio")
	return server.ServeStdio(s.mcpServer)
}
