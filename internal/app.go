package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// StatusMessage is the fixed liveness message
const StatusMessage = "EduVision AI Service - Powered by Cloud APIs"

// MetadataFetcher looks up video details
type MetadataFetcher interface {
	Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error)
}

// App holds the application state and dependencies
type App struct {
	config *Config
	logger *slog.Logger

	store      Store
	captions   TranscriptProvider
	metadata   MetadataFetcher
	generation ChatCompleter
	chat       ChatCompleter
	prompts    *PromptManager

	questionOpts []QuestionGeneratorOption

	transcripts *TranscriptAcquirer
	summarizer  *Summarizer
	questions   *QuestionGenerator
	responder   *Responder

	inflight singleflight.Group
}

// NewApp wires the application components. Dependencies not supplied through
// options are built from config.
func NewApp(config *Config, options ...AppOption) (*App, error) {
	app := &App{
		config: config,
		logger: slog.Default(),
	}

	// Apply any custom options
	for _, option := range options {
		option(app)
	}

	if app.store == nil {
		store, err := NewStore(config, app.logger)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	if app.captions == nil || app.metadata == nil {
		youtube := NewYouTube(config.TempDir, config.Language, app.logger)
		if app.captions == nil {
			app.captions = youtube
		}
		if app.metadata == nil {
			app.metadata = youtube
		}
	}

	if app.generation == nil {
		app.generation = NewOpenAIClient(ProviderConfig{
			Name:    "gemini",
			APIKey:  config.GoogleAPIKey,
			BaseURL: config.GenerationBaseURL,
			Model:   config.GenerationModel,
			Timeout: config.ProviderTimeout,
		})
	}
	if app.chat == nil {
		app.chat = NewOpenAIClient(ProviderConfig{
			Name:    "openai",
			APIKey:  config.OpenAIAPIKey,
			BaseURL: config.ChatBaseURL,
			Model:   config.ChatModel,
			Timeout: config.ProviderTimeout,
		})
	}

	if app.prompts == nil {
		prompts, err := NewPromptManager(config.SummaryPrompt)
		if err != nil {
			return nil, err
		}
		app.prompts = prompts
	}

	app.transcripts = NewTranscriptAcquirer(app.captions, app.store, config.TranscriptWorkers, app.logger)
	app.summarizer = NewSummarizer(app.generation, app.store, app.prompts, app.logger)
	app.questions = NewQuestionGenerator(app.generation, app.store, app.prompts, app.logger, app.questionOpts...)
	app.responder = NewResponder(app.chat, app.prompts, app.logger)

	return app, nil
}

// AppOption customizes App creation
type AppOption func(*App)

// WithLogger sets the logger shared by all components
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStore sets a custom artifact cache
func WithStore(store Store) AppOption {
	return func(a *App) {
		a.store = store
	}
}

// WithTranscriptProvider sets a custom caption source
func WithTranscriptProvider(provider TranscriptProvider) AppOption {
	return func(a *App) {
		a.captions = provider
	}
}

// WithMetadataFetcher sets a custom metadata source
func WithMetadataFetcher(fetcher MetadataFetcher) AppOption {
	return func(a *App) {
		a.metadata = fetcher
	}
}

// WithGenerationClient sets the provider used for summaries and questions
func WithGenerationClient(client ChatCompleter) AppOption {
	return func(a *App) {
		a.generation = client
	}
}

// WithChatClient sets the provider used for question answering
func WithChatClient(client ChatCompleter) AppOption {
	return func(a *App) {
		a.chat = client
	}
}

// WithPromptManager sets custom prompt templates
func WithPromptManager(pm *PromptManager) AppOption {
	return func(a *App) {
		a.prompts = pm
	}
}

// WithQuestionOptions passes options through to the question generator
func WithQuestionOptions(opts ...QuestionGeneratorOption) AppOption {
	return func(a *App) {
		a.questionOpts = append(a.questionOpts, opts...)
	}
}

// Config returns the configuration the app was built with
func (app *App) Config() *Config {
	return app.config
}

// Logger returns the application logger
func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Status reports liveness. It touches no provider or cache.
func (app *App) Status() Status {
	return Status{Status: StatusMessage}
}

type processOutcome struct {
	transcript string
	summary    string
	questions  QuestionSet
}

// ProcessVideo acquires the transcript for videoURL and produces its summary
// and question set. Summary and questions are generated concurrently once the
// transcript is known; neither can fail the request. Only transcript
// acquisition errors are returned.
func (app *App) ProcessVideo(ctx context.Context, videoURL string) (*ProcessResult, error) {
	start := time.Now()

	id, err := NormalizeVideoURL(videoURL)
	if err != nil {
		observe("process_video", start, err)
		return nil, err
	}

	v, err := app.dedupe("process:"+string(id), func() (any, error) {
		return app.process(ctx, videoURL)
	})
	observe("process_video", start, err)
	if err != nil {
		return nil, err
	}
	outcome := v.(*processOutcome)

	return &ProcessResult{
		Transcript:     outcome.transcript,
		Summary:        outcome.summary,
		Questions:      outcome.questions,
		ProcessingTime: fmt.Sprintf("%.2fs", time.Since(start).Seconds()),
		VideoURL:       videoURL,
	}, nil
}

func (app *App) process(ctx context.Context, videoURL string) (*processOutcome, error) {
	transcript, id, err := app.transcripts.Acquire(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	outcome := &processOutcome{transcript: transcript}

	var g errgroup.Group
	g.Go(func() error {
		outcome.summary = app.summarizer.Summarize(ctx, transcript, id)
		return nil
	})
	g.Go(func() error {
		outcome.questions = app.questions.Generate(ctx, transcript, id, false)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	app.logger.Info("processed video", "identity", id, "questions", len(outcome.questions))
	return outcome, nil
}

// RefreshQuestions regenerates the question set for videoURL, ignoring any
// cached set. The transcript itself is still served from the cache.
func (app *App) RefreshQuestions(ctx context.Context, videoURL string) (QuestionSet, error) {
	start := time.Now()

	id, err := NormalizeVideoURL(videoURL)
	if err != nil {
		observe("refresh_questions", start, err)
		return nil, err
	}

	v, err := app.dedupe("refresh:"+string(id), func() (any, error) {
		return app.Questions(ctx, videoURL, true)
	})
	observe("refresh_questions", start, err)
	if err != nil {
		return nil, err
	}
	return v.(QuestionSet), nil
}

// AskQuestion answers question about videoURL given the conversation so far.
// The transcript is acquired through the cache; answers are never cached.
func (app *App) AskQuestion(ctx context.Context, videoURL, question string, history []ChatTurn) (string, error) {
	start := time.Now()

	if err := ValidateAsk(question, history); err != nil {
		observe("ask_question", start, err)
		return "", err
	}

	transcript, _, err := app.transcripts.Acquire(ctx, videoURL)
	if err != nil {
		observe("ask_question", start, err)
		return "", err
	}

	answer, err := app.responder.Answer(ctx, transcript, question, history)
	observe("ask_question", start, err)
	return answer, err
}

// Transcript returns the normalized transcript and identity for videoURL
func (app *App) Transcript(ctx context.Context, videoURL string) (string, VideoIdentity, error) {
	return app.transcripts.Acquire(ctx, videoURL)
}

// Summary returns the summary for videoURL
func (app *App) Summary(ctx context.Context, videoURL string) (string, error) {
	transcript, id, err := app.transcripts.Acquire(ctx, videoURL)
	if err != nil {
		return "", err
	}
	return app.summarizer.Summarize(ctx, transcript, id), nil
}

// Questions returns the question set for videoURL, regenerating it when refresh is set
func (app *App) Questions(ctx context.Context, videoURL string, refresh bool) (QuestionSet, error) {
	transcript, id, err := app.transcripts.Acquire(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	return app.questions.Generate(ctx, transcript, id, refresh), nil
}

// Metadata fetches video details for videoURL
func (app *App) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	id, err := NormalizeVideoURL(videoURL)
	if err != nil {
		return nil, err
	}
	metadata, err := app.metadata.Metadata(ctx, id.WatchURL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return metadata, nil
}

// InvalidateCache removes the given artifact kinds for videoURL; no kinds means all of them
func (app *App) InvalidateCache(ctx context.Context, videoURL string, kinds ...ArtifactKind) (VideoIdentity, error) {
	id, err := NormalizeVideoURL(videoURL)
	if err != nil {
		return "", err
	}
	if len(kinds) == 0 {
		kinds = ArtifactKinds
	}
	for _, kind := range kinds {
		if err := app.store.Delete(ctx, id, kind); err != nil {
			return id, fmt.Errorf("deleting %s for %s: %w", kind, id, err)
		}
	}
	return id, nil
}

// ClearCache removes every cached artifact and returns how many were removed
func (app *App) ClearCache(ctx context.Context) (int, error) {
	return app.store.Clear(ctx)
}

// CacheStats describes the artifact cache
func (app *App) CacheStats(ctx context.Context) (CacheStats, error) {
	return app.store.Stats(ctx)
}

// dedupe collapses concurrent calls with the same key into one execution
// when de-duplication is enabled
func (app *App) dedupe(key string, fn func() (any, error)) (any, error) {
	if !app.config.DedupeInflight {
		return fn()
	}

	v, err, shared := app.inflight.Do(key, fn)
	if shared {
		InflightRequestsTotal.WithLabelValues(InflightShared).Inc()
	} else {
		InflightRequestsTotal.WithLabelValues(InflightInitiated).Inc()
	}
	return v, err
}

func observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = ErrorCode(err)
	}
	OperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
