package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// RefusalSentence is what the assistant must answer when the transcript lacks the answer
	RefusalSentence = "I'm sorry, but the answer to that question is not covered in this video."
	// AnswerMaxTokens bounds the length of an answer
	AnswerMaxTokens = 500
	// AnswerTemperature favors grounded, repeatable answers
	AnswerTemperature = 0.2
)

// Responder answers free-form questions grounded in a transcript
type Responder struct {
	client  ChatCompleter
	prompts *PromptManager
	logger  *slog.Logger
}

// NewResponder creates a responder backed by the chat provider
func NewResponder(client ChatCompleter, prompts *PromptManager, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		client:  client,
		prompts: prompts,
		logger:  logger,
	}
}

// ValidateAsk rejects an empty question or a history turn with an unknown role
func ValidateAsk(question string, history []ChatTurn) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}
	for i, turn := range history {
		if !turn.Role.Valid() {
			return fmt.Errorf("%w: history turn %d has unknown role %q", ErrInvalidInput, i+1, turn.Role)
		}
	}
	return nil
}

// Answer asks the provider question in the context of transcript and the
// prior turns in history. History is sent verbatim and never modified.
// Answers are not cached; provider failures surface as ErrUpstream.
func (r *Responder) Answer(ctx context.Context, transcript, question string, history []ChatTurn) (string, error) {
	question = strings.TrimSpace(question)
	if err := ValidateAsk(question, history); err != nil {
		return "", err
	}

	system, err := r.prompts.AnswerSystemPrompt(transcript, RefusalSentence)
	if err != nil {
		return "", err
	}

	messages := make([]ChatTurn, 0, len(history)+2)
	messages = append(messages, ChatTurn{Role: RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, ChatTurn{Role: RoleUser, Content: question})

	answer, err := r.client.Complete(ctx, ChatRequest{
		Messages:    messages,
		Temperature: floatPtr(AnswerTemperature),
		MaxTokens:   AnswerMaxTokens,
	})
	ProviderCallsTotal.WithLabelValues(ProviderChat, "answer", providerStatus(err)).Inc()
	if err != nil {
		r.logger.Error("answering question failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return strings.TrimSpace(answer), nil
}
