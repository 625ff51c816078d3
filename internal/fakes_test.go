package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCaptions is a TranscriptProvider returning canned segments
type fakeCaptions struct {
	mu       sync.Mutex
	segments []string
	err      error
	calls    int
}

func (f *fakeCaptions) FetchSegments(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

func (f *fakeCaptions) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCompleter is a ChatCompleter that replays responses in order and
// repeats the last one once they run out
type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []ChatRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := req
	copied.Messages = append([]ChatTurn(nil), req.Messages...)
	f.requests = append(f.requests, copied)

	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	i := len(f.requests) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCompleter) Requests() []ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChatRequest(nil), f.requests...)
}

// routingCompleter answers summary and question prompts differently so one
// fake can stand in for the generation provider under concurrent use
type routingCompleter struct {
	summary   *fakeCompleter
	questions *fakeCompleter
}

func (r *routingCompleter) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if req.JSON {
		return r.questions.Complete(ctx, req)
	}
	return r.summary.Complete(ctx, req)
}

// memStore is an in-memory Store that counts operations
type memStore struct {
	mu      sync.Mutex
	records map[string][]byte
	loads   int
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, id VideoIdentity, kind ArtifactKind, dst any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	data, ok := m.records[CacheKey(id, kind)]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (m *memStore) Save(_ context.Context, id VideoIdentity, kind ArtifactKind, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.records[CacheKey(id, kind)] = data
	return nil
}

func (m *memStore) Delete(_ context.Context, id VideoIdentity, kind ArtifactKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, CacheKey(id, kind))
	return nil
}

func (m *memStore) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	m.records = make(map[string][]byte)
	return n, nil
}

func (m *memStore) Stats(_ context.Context) (CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := CacheStats{Backend: "memory", Entries: make(map[ArtifactKind]int)}
	for key, data := range m.records {
		kind, _ := kindFromKey(key)
		stats.Entries[kind]++
		stats.TotalSize += int64(len(data))
	}
	return stats, nil
}

func (m *memStore) has(id VideoIdentity, kind ArtifactKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[CacheKey(id, kind)]
	return ok
}

func (m *memStore) counts() (loads, saves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads, m.saves
}

func mustPrompts(t *testing.T) *PromptManager {
	t.Helper()
	pm, err := NewPromptManager("")
	if err != nil {
		t.Fatalf("NewPromptManager: %v", err)
	}
	return pm
}

// validQuestionsJSON renders n well-formed questions
func validQuestionsJSON(n int) string {
	questions := make(QuestionSet, n)
	for i := range questions {
		questions[i] = Question{
			Question: "What happens in part " + string(rune('A'+i)) + "?",
			Options:  []string{"one", "two", "three", "four"},
			Answer:   "two",
		}
	}
	data, _ := json.Marshal(questions)
	return string(data)
}
