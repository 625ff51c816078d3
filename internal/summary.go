package internal

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// SummaryWords is the target length of a generated summary
	SummaryWords = 250
	// FallbackSummaryWords is how many transcript tokens the degraded summary keeps
	FallbackSummaryWords = 100
	// fallbackEllipsis marks a degraded summary
	fallbackEllipsis = "..."
)

// generationSampling mirrors the generation settings used for summaries and questions
var generationSampling = struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}{
	Temperature: 0.4,
	TopP:        0.9,
	MaxTokens:   2048,
}

type summaryRecord struct {
	Summary string `json:"summary"`
}

// Summarizer produces a bounded-length summary of a transcript
type Summarizer struct {
	client  ChatCompleter
	store   Store
	prompts *PromptManager
	logger  *slog.Logger
}

// NewSummarizer creates a summarizer backed by the generation provider
func NewSummarizer(client ChatCompleter, store Store, prompts *PromptManager, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client:  client,
		store:   store,
		prompts: prompts,
		logger:  logger,
	}
}

// Summarize returns the cached summary for id or generates one from the full
// transcript. It never fails: a provider error yields FallbackSummary, which is
// not cached so a later request can still attempt real generation.
func (s *Summarizer) Summarize(ctx context.Context, transcript string, id VideoIdentity) string {
	var cached summaryRecord
	if s.store.Load(ctx, id, KindSummary, &cached) && cached.Summary != "" {
		return cached.Summary
	}

	s.logger.Info("generating summary", "identity", id)

	summary, err := s.generate(ctx, transcript)
	ProviderCallsTotal.WithLabelValues(ProviderGeneration, string(KindSummary), providerStatus(err)).Inc()
	if err != nil {
		s.logger.Warn("summarization failed, using fallback", "identity", id, "error", err)
		FallbacksTotal.WithLabelValues(string(KindSummary)).Inc()
		return FallbackSummary(transcript)
	}

	if err := s.store.Save(ctx, id, KindSummary, summaryRecord{Summary: summary}); err != nil {
		s.logger.Warn("cache save failed", "identity", id, "kind", KindSummary, "error", err)
	}
	return summary
}

func (s *Summarizer) generate(ctx context.Context, transcript string) (string, error) {
	prompt, err := s.prompts.SummaryPrompt(transcript, SummaryWords)
	if err != nil {
		return "", err
	}

	content, err := s.client.Complete(ctx, ChatRequest{
		Messages:    []ChatTurn{{Role: RoleUser, Content: prompt}},
		Temperature: floatPtr(generationSampling.Temperature),
		TopP:        floatPtr(generationSampling.TopP),
		MaxTokens:   generationSampling.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return "", ErrValidation
	}
	return summary, nil
}

// FallbackSummary is the degraded summary: the first FallbackSummaryWords tokens plus an ellipsis
func FallbackSummary(transcript string) string {
	return FirstWords(transcript, FallbackSummaryWords) + fallbackEllipsis
}
