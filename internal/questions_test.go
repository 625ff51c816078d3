package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, client ChatCompleter, store Store) *QuestionGenerator {
	t.Helper()
	return NewQuestionGenerator(client, store, mustPrompts(t), discardLogger(), WithRetryInterval(time.Millisecond))
}

func TestQuestionGeneratorAcceptsAndCaches(t *testing.T) {
	client := &fakeCompleter{responses: []string{validQuestionsJSON(10)}}
	store := newMemStore()
	g := newTestGenerator(t, client, store)
	id := NewVideoIdentity("dQw4w9WgXcQ")

	questions := g.Generate(context.Background(), "transcript", id, false)
	require.Len(t, questions, 10)
	assert.True(t, store.has(id, KindQuestions))

	req := client.Requests()[0]
	assert.True(t, req.JSON)
	assert.Contains(t, req.Messages[0].Content, "Generate 10 multiple-choice questions")

	cached := g.Generate(context.Background(), "transcript", id, false)
	assert.Equal(t, questions, cached)
	assert.Equal(t, 1, client.Calls(), "cache hit makes no provider call")
}

func TestQuestionGeneratorForceRefreshBypassesCache(t *testing.T) {
	client := &fakeCompleter{responses: []string{validQuestionsJSON(3), validQuestionsJSON(5)}}
	store := newMemStore()
	g := newTestGenerator(t, client, store)
	id := NewVideoIdentity("dQw4w9WgXcQ")

	first := g.Generate(context.Background(), "transcript", id, false)
	require.Len(t, first, 3)

	refreshed := g.Generate(context.Background(), "transcript", id, true)
	require.Len(t, refreshed, 5)
	assert.Equal(t, 2, client.Calls())

	cached := g.Generate(context.Background(), "transcript", id, false)
	assert.Len(t, cached, 5, "refreshed set replaces the cached one")
}

func TestQuestionGeneratorRetriesThenSentinel(t *testing.T) {
	client := &fakeCompleter{responses: []string{"Sorry, I cannot help with that."}}
	store := newMemStore()
	g := newTestGenerator(t, client, store)
	id := NewVideoIdentity("dQw4w9WgXcQ")

	questions := g.Generate(context.Background(), "transcript", id, false)
	assert.Equal(t, SentinelQuestions(), questions)
	assert.Equal(t, MaxRetries, client.Calls())
	assert.False(t, store.has(id, KindQuestions), "sentinel is never cached")
}

func TestQuestionGeneratorRecoversOnSecondAttempt(t *testing.T) {
	client := &fakeCompleter{responses: []string{`[{"question": "q", "options": ["a","b"], "answer": "a"}]`, validQuestionsJSON(4)}}
	store := newMemStore()
	g := newTestGenerator(t, client, store)
	id := NewVideoIdentity("dQw4w9WgXcQ")

	questions := g.Generate(context.Background(), "transcript", id, false)
	assert.Len(t, questions, 4)
	assert.Equal(t, 2, client.Calls())
	assert.True(t, store.has(id, KindQuestions))
}

func TestQuestionGeneratorProviderErrorYieldsSentinel(t *testing.T) {
	client := &fakeCompleter{err: errors.New("503 service unavailable")}
	g := newTestGenerator(t, client, newMemStore())

	questions := g.Generate(context.Background(), "transcript", NewVideoIdentity("dQw4w9WgXcQ"), false)
	assert.Equal(t, SentinelQuestions(), questions)
	assert.Equal(t, MaxRetries, client.Calls())
}

func TestQuestionGeneratorInvalidCacheIsRegenerated(t *testing.T) {
	store := newMemStore()
	id := NewVideoIdentity("dQw4w9WgXcQ")
	require.NoError(t, store.Save(context.Background(), id, KindQuestions, questionsRecord{Questions: QuestionSet{}}))

	client := &fakeCompleter{responses: []string{validQuestionsJSON(2)}}
	g := newTestGenerator(t, client, store)

	questions := g.Generate(context.Background(), "transcript", id, false)
	assert.Len(t, questions, 2)
	assert.Equal(t, 1, client.Calls())
}

func TestParseQuestions(t *testing.T) {
	valid := validQuestionsJSON(2)

	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"plain array", valid, 2, false},
		{"json fence", "```json\n" + valid + "\n```", 2, false},
		{"bare fence", "```\n" + valid + "\n```", 2, false},
		{"leading prose", "Here are your questions:\n" + valid, 2, false},
		{"trailing prose", valid + "\nLet me know if you need more.", 2, false},
		{"object wrapper", `{"questions": ` + valid + `}`, 2, false},
		{"truncates to ten", validQuestionsJSON(12), 10, false},
		{"not json", "no questions here", 0, true},
		{"empty array", "[]", 0, true},
		{"three options", `[{"question":"q","options":["a","b","c"],"answer":"a"}]`, 0, true},
		{"answer not an option", `[{"question":"q","options":["a","b","c","d"],"answer":"e"}]`, 0, true},
		{"duplicate options", `[{"question":"q","options":["a","a","c","d"],"answer":"a"}]`, 0, true},
		{"empty question", `[{"question":"  ","options":["a","b","c","d"],"answer":"a"}]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestions(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestParseQuestionsTrimsWhitespace(t *testing.T) {
	got, err := ParseQuestions(`[{"question":" q ","options":[" a","b ","c","d"],"answer":" b "}]`)
	require.NoError(t, err)
	assert.Equal(t, Question{Question: "q", Options: []string{"a", "b", "c", "d"}, Answer: "b"}, got[0])
}

func TestSentinelQuestionsShape(t *testing.T) {
	s := SentinelQuestions()
	require.Len(t, s, 1)
	assert.Equal(t, "Could not generate questions.", s[0].Question)
	assert.Equal(t, []string{"A", "B", "C", "D"}, s[0].Options)
	assert.Equal(t, "A", s[0].Answer)
	assert.NoError(t, ValidateQuestions(s))
}
