package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAcquirerFetchesAndCaches(t *testing.T) {
	captions := &fakeCaptions{segments: []string{"Never gonna", "  give you\nup ", "never gonna\tlet you down"}}
	store := newMemStore()
	acquirer := NewTranscriptAcquirer(captions, store, 2, discardLogger())
	ctx := context.Background()

	transcript, id, err := acquirer.Acquire(ctx, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, NewVideoIdentity("dQw4w9WgXcQ"), id)
	assert.Equal(t, "Never gonna give you up never gonna let you down", transcript)
	assert.True(t, store.has(id, KindTranscript))

	again, _, err := acquirer.Acquire(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, transcript, again)
	assert.Equal(t, 1, captions.Calls(), "second call must be served from the cache")
}

func TestTranscriptAcquirerInvalidURLTouchesNothing(t *testing.T) {
	captions := &fakeCaptions{segments: []string{"x"}}
	store := newMemStore()
	acquirer := NewTranscriptAcquirer(captions, store, 1, discardLogger())

	_, _, err := acquirer.Acquire(context.Background(), "https://example.com/video")
	require.ErrorIs(t, err, ErrInvalidReference)

	loads, saves := store.counts()
	assert.Zero(t, loads)
	assert.Zero(t, saves)
	assert.Zero(t, captions.Calls())
}

func TestTranscriptAcquirerErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		wantNot error
	}{
		{"disabled", fmt.Errorf("%w: dQw4w9WgXcQ", ErrTranscriptsDisabled), ErrTranscriptUnavailable, ErrUpstream},
		{"not found", ErrNoTranscriptFound, ErrTranscriptUnavailable, ErrUpstream},
		{"network", errors.New("connection reset"), ErrUpstream, ErrTranscriptUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			acquirer := NewTranscriptAcquirer(&fakeCaptions{err: tt.err}, store, 1, discardLogger())

			_, _, err := acquirer.Acquire(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			require.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, tt.wantNot)

			_, saves := store.counts()
			assert.Zero(t, saves, "failures are never cached")
		})
	}
}

func TestTranscriptAcquirerEmptyTranscript(t *testing.T) {
	acquirer := NewTranscriptAcquirer(&fakeCaptions{segments: []string{" ", "\n"}}, newMemStore(), 1, discardLogger())

	_, _, err := acquirer.Acquire(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.ErrorIs(t, err, ErrTranscriptUnavailable)
}

func TestTranscriptAcquirerSaveFailureStillReturns(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	acquirer := NewTranscriptAcquirer(&fakeCaptions{segments: []string{"hello"}}, store, 1, discardLogger())

	transcript, _, err := acquirer.Acquire(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "hello", transcript)
}
