package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// MaxQuestions is the size of a generated question set
	MaxQuestions = 10
	// MaxRetries bounds provider attempts per question set
	MaxRetries = 2
	// DefaultRetryInterval is the fixed pause between attempts
	DefaultRetryInterval = time.Second
	// OptionsPerQuestion is the exact option count of every question
	OptionsPerQuestion = 4
)

type questionsRecord struct {
	Questions QuestionSet `json:"questions"`
}

// SentinelQuestions is returned when generation permanently fails. It keeps
// the response shape intact and is never cached.
func SentinelQuestions() QuestionSet {
	return QuestionSet{{
		Question: "Could not generate questions.",
		Options:  []string{"A", "B", "C", "D"},
		Answer:   "A",
	}}
}

// QuestionGenerator produces validated multiple-choice question sets
type QuestionGenerator struct {
	client        ChatCompleter
	store         Store
	prompts       *PromptManager
	logger        *slog.Logger
	retryInterval time.Duration
}

// QuestionGeneratorOption customizes a QuestionGenerator
type QuestionGeneratorOption func(*QuestionGenerator)

// WithRetryInterval overrides the pause between attempts
func WithRetryInterval(d time.Duration) QuestionGeneratorOption {
	return func(g *QuestionGenerator) {
		g.retryInterval = d
	}
}

// NewQuestionGenerator creates a generator backed by the generation provider
func NewQuestionGenerator(client ChatCompleter, store Store, prompts *PromptManager, logger *slog.Logger, opts ...QuestionGeneratorOption) *QuestionGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &QuestionGenerator{
		client:        client,
		store:         store,
		prompts:       prompts,
		logger:        logger,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a question set for the transcript. Unless forceRefresh is
// set a valid cached set short-circuits generation. Every accepted set is
// persisted; after MaxRetries failed attempts the sentinel set is returned.
// Generate never fails.
func (g *QuestionGenerator) Generate(ctx context.Context, transcript string, id VideoIdentity, forceRefresh bool) QuestionSet {
	if !forceRefresh {
		var cached questionsRecord
		if g.store.Load(ctx, id, KindQuestions, &cached) {
			if err := ValidateQuestions(cached.Questions); err == nil {
				return cached.Questions
			}
			g.logger.Warn("cached questions invalid, regenerating", "identity", id)
		}
	}

	g.logger.Info("generating questions", "identity", id, "force_refresh", forceRefresh)

	prompt, err := g.prompts.QuestionsPrompt(transcript, MaxQuestions)
	if err != nil {
		g.logger.Error("building questions prompt failed", "identity", id, "error", err)
		FallbacksTotal.WithLabelValues(string(KindQuestions)).Inc()
		return SentinelQuestions()
	}

	attempt := 0
	operation := func() (QuestionSet, error) {
		attempt++
		questions, err := g.attempt(ctx, prompt)
		if err != nil {
			g.logger.Warn("question generation attempt failed",
				"identity", id,
				"attempt", attempt,
				"max_attempts", MaxRetries,
				"error", err,
			)
			return nil, err
		}
		return questions, nil
	}

	questions, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(g.retryInterval)),
		backoff.WithMaxTries(MaxRetries),
	)
	if err != nil {
		g.logger.Error("question generation failed, using sentinel", "identity", id, "attempts", attempt, "error", err)
		FallbacksTotal.WithLabelValues(string(KindQuestions)).Inc()
		return SentinelQuestions()
	}

	if err := g.store.Save(ctx, id, KindQuestions, questionsRecord{Questions: questions}); err != nil {
		g.logger.Warn("cache save failed", "identity", id, "kind", KindQuestions, "error", err)
	}
	return questions
}

// attempt performs one provider call and validates its output
func (g *QuestionGenerator) attempt(ctx context.Context, prompt string) (QuestionSet, error) {
	raw, err := g.client.Complete(ctx, ChatRequest{
		Messages:    []ChatTurn{{Role: RoleUser, Content: prompt}},
		Temperature: floatPtr(generationSampling.Temperature),
		TopP:        floatPtr(generationSampling.TopP),
		MaxTokens:   generationSampling.MaxTokens,
		JSON:        true,
	})
	ProviderCallsTotal.WithLabelValues(ProviderGeneration, string(KindQuestions), providerStatus(err)).Inc()
	if err != nil {
		QuestionAttemptsTotal.WithLabelValues(AttemptProviderError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	questions, err := ParseQuestions(raw)
	if err != nil {
		QuestionAttemptsTotal.WithLabelValues(AttemptInvalid).Inc()
		return nil, err
	}

	QuestionAttemptsTotal.WithLabelValues(AttemptAccepted).Inc()
	return questions, nil
}

// ParseQuestions extracts a question array from a raw provider response and
// validates it. Sets longer than MaxQuestions are cut to MaxQuestions.
func ParseQuestions(raw string) (QuestionSet, error) {
	questions, err := extractQuestionArray(raw)
	if err != nil {
		return nil, err
	}

	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}
	for i := range questions {
		questions[i] = normalizeQuestion(questions[i])
	}

	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// extractQuestionArray finds the first JSON array of question objects in raw.
// The whole text is tried first, then the text with markdown fences removed,
// then every '[' in the text as a candidate array start. Trailing prose after
// the array is ignored.
func extractQuestionArray(raw string) (QuestionSet, error) {
	text := strings.TrimSpace(raw)

	var questions QuestionSet
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return questions, nil
	}

	text = stripCodeFence(text)
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return questions, nil
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		var candidate QuestionSet
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&candidate); err == nil {
			return candidate, nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON array found in the response", ErrValidation)
}

// stripCodeFence removes a surrounding ``` or ```json fence
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "[{") {
		// language tag such as "json"
		text = text[nl+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func normalizeQuestion(q Question) Question {
	q.Question = strings.TrimSpace(q.Question)
	q.Answer = strings.TrimSpace(q.Answer)
	options := make([]string, len(q.Options))
	for i, o := range q.Options {
		options[i] = strings.TrimSpace(o)
	}
	q.Options = options
	return q
}

// ValidateQuestions enforces the question set contract: 1 to MaxQuestions
// questions, each with non-empty text, exactly OptionsPerQuestion unique
// options, and an answer equal to one of them.
func ValidateQuestions(questions QuestionSet) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty question set", ErrValidation)
	}
	if len(questions) > MaxQuestions {
		return fmt.Errorf("%w: %d questions exceeds maximum of %d", ErrValidation, len(questions), MaxQuestions)
	}

	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrValidation, i+1)
		}
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("%w: question %d has %d options, want %d", ErrValidation, i+1, len(q.Options), OptionsPerQuestion)
		}

		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := seen[o]; dup {
				return fmt.Errorf("%w: question %d has duplicate option %q", ErrValidation, i+1, o)
			}
			seen[o] = struct{}{}
		}

		if _, ok := seen[q.Answer]; !ok {
			return fmt.Errorf("%w: question %d answer %q is not among its options", ErrValidation, i+1, q.Answer)
		}
	}
	return nil
}
