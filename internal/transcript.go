package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"
)

// DefaultTranscriptWorkers bounds concurrent caption downloads
const DefaultTranscriptWorkers = 4

type transcriptRecord struct {
	Transcript string `json:"transcript"`
}

// TranscriptAcquirer resolves a video URL to its whitespace-normalized transcript,
// serving from the cache when possible
type TranscriptAcquirer struct {
	provider TranscriptProvider
	store    Store
	workers  *semaphore.Weighted
	logger   *slog.Logger
}

// NewTranscriptAcquirer creates an acquirer; workers <= 0 selects DefaultTranscriptWorkers
func NewTranscriptAcquirer(provider TranscriptProvider, store Store, workers int, logger *slog.Logger) *TranscriptAcquirer {
	if workers <= 0 {
		workers = DefaultTranscriptWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptAcquirer{
		provider: provider,
		store:    store,
		workers:  semaphore.NewWeighted(int64(workers)),
		logger:   logger,
	}
}

// Acquire returns the transcript and identity for videoURL.
//
// Failures are terminal for the request: ErrInvalidReference for a URL that
// names no video, ErrTranscriptUnavailable when the video has no captions, and
// ErrUpstream for anything else the provider reports.
func (t *TranscriptAcquirer) Acquire(ctx context.Context, videoURL string) (string, VideoIdentity, error) {
	id, err := NormalizeVideoURL(videoURL)
	if err != nil {
		return "", "", err
	}

	var cached transcriptRecord
	if t.store.Load(ctx, id, KindTranscript, &cached) && cached.Transcript != "" {
		t.logger.Debug("transcript cache hit", "identity", id)
		return cached.Transcript, id, nil
	}

	segments, err := t.fetch(ctx, id)
	if err != nil {
		return "", id, err
	}

	transcript := CollapseWhitespace(strings.Join(segments, " "))
	if transcript == "" {
		return "", id, fmt.Errorf("%w: empty transcript for %s", ErrTranscriptUnavailable, id)
	}

	if err := t.store.Save(ctx, id, KindTranscript, transcriptRecord{Transcript: transcript}); err != nil {
		t.logger.Warn("cache save failed", "identity", id, "kind", KindTranscript, "error", err)
	}

	return transcript, id, nil
}

// fetch runs the provider call in a bounded worker slot
func (t *TranscriptAcquirer) fetch(ctx context.Context, id VideoIdentity) ([]string, error) {
	if err := t.workers.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for transcript worker: %v", ErrUpstream, err)
	}
	defer t.workers.Release(1)

	t.logger.Info("fetching transcript", "identity", id)

	segments, err := t.provider.FetchSegments(ctx, id.VideoID())
	ProviderCallsTotal.WithLabelValues(ProviderCaptions, string(KindTranscript), providerStatus(err)).Inc()
	if err != nil {
		if errors.Is(err, ErrNoTranscriptFound) || errors.Is(err, ErrTranscriptsDisabled) {
			return nil, fmt.Errorf("%w: %v", ErrTranscriptUnavailable, err)
		}
		t.logger.Error("transcript provider failed", "identity", id, "error", err)
		return nil, fmt.Errorf("%w: an error occurred during transcription: %v", ErrUpstream, err)
	}
	return segments, nil
}
