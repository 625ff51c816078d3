package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// ChatRequest is a provider-agnostic chat completion request
type ChatRequest struct {
	Messages    []ChatTurn
	Temperature *float64
	TopP        *float64
	MaxTokens   int
	// JSON asks the provider for its structured JSON output mode
	JSON bool
}

// ChatCompleter is a long-lived, concurrency-safe handle to a generation provider
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ProviderConfig describes how to reach one OpenAI-compatible endpoint
type ProviderConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient wraps the official OpenAI Go SDK. Any OpenAI-compatible
// endpoint works, which is how the Gemini generation provider is reached.
type OpenAIClient struct {
	client  *openai.Client
	name    string
	model   string
	timeout time.Duration
	apiKey  string
}

// NewOpenAIClient creates a client for the configured endpoint
func NewOpenAIClient(cfg ProviderConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIClient{
		client:  &client,
		name:    cfg.Name,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		apiKey:  cfg.APIKey,
	}
}

// Name identifies the provider in logs and metrics
func (c *OpenAIClient) Name() string {
	return c.name
}

// Complete sends the conversation and returns the first choice's content
func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s provider: API key is not configured", c.name)
	}

	params, err := buildChatParams(c.model, req)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices from provider")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildChatParams maps a ChatRequest onto the SDK's request parameters
func buildChatParams(model string, req ChatRequest) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
	}

	for _, turn := range req.Messages {
		switch turn.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(turn.Content))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(turn.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(turn.Content))
		default:
			return params, fmt.Errorf("unsupported chat role %q", turn.Role)
		}
	}
	if len(params.Messages) == 0 {
		return params, errors.New("chat request has no messages")
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params, nil
}

func floatPtr(f float64) *float64 {
	return &f
}
