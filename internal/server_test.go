package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVideoService struct {
	processFn func(ctx context.Context, videoURL string) (*ProcessResult, error)
	refreshFn func(ctx context.Context, videoURL string) (QuestionSet, error)
	askFn     func(ctx context.Context, videoURL, question string, history []ChatTurn) (string, error)
}

func (m *mockVideoService) Status() Status {
	return Status{Status: StatusMessage}
}

func (m *mockVideoService) ProcessVideo(ctx context.Context, videoURL string) (*ProcessResult, error) {
	if m.processFn != nil {
		return m.processFn(ctx, videoURL)
	}
	return nil, nil
}

func (m *mockVideoService) RefreshQuestions(ctx context.Context, videoURL string) (QuestionSet, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, videoURL)
	}
	return nil, nil
}

func (m *mockVideoService) AskQuestion(ctx context.Context, videoURL, question string, history []ChatTurn) (string, error) {
	if m.askFn != nil {
		return m.askFn(ctx, videoURL, question, history)
	}
	return "", nil
}

func newTestRouter(svc VideoService) http.Handler {
	return NewHandler(svc, discardLogger()).Router(DefaultAllowedOrigins)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(&mockVideoService{})

	for _, path := range []string{"/", "/health"} {
		rec := doJSON(t, h, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"EduVision AI Service - Powered by Cloud APIs"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	}
}

func TestProcessVideoEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"}, wantStatus: http.StatusOK},
		{name: "invalid reference", body: VideoRequest{URL: "nope"}, err: fmt.Errorf("%w: %q", ErrInvalidReference, "nope"), wantStatus: http.StatusBadRequest, wantCode: "invalid_reference"},
		{name: "no transcript", body: VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"}, err: fmt.Errorf("%w: disabled", ErrTranscriptUnavailable), wantStatus: http.StatusNotFound, wantCode: "transcript_unavailable"},
		{name: "upstream", body: VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"}, err: fmt.Errorf("%w: timeout", ErrUpstream), wantStatus: http.StatusInternalServerError, wantCode: "upstream_failure"},
		{name: "malformed body", body: "{", wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockVideoService{
				processFn: func(ctx context.Context, videoURL string) (*ProcessResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &ProcessResult{
						Transcript:     "t",
						Summary:        "s",
						Questions:      SentinelQuestions(),
						ProcessingTime: "1.23s",
						VideoURL:       videoURL,
					}, nil
				},
			}

			rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/process_video", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantCode != "" {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Error)
				assert.NotEmpty(t, resp.Detail)
				return
			}

			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", got["video_url"])
			assert.Equal(t, "1.23s", got["processing_time"])
			for _, key := range []string{"transcript", "summary", "questions"} {
				assert.Contains(t, got, key)
			}
		})
	}
}

func TestProcessVideoEndpointDetachesCancellation(t *testing.T) {
	var sawCancel bool
	svc := &mockVideoService{
		processFn: func(ctx context.Context, videoURL string) (*ProcessResult, error) {
			sawCancel = ctx.Err() != nil
			return &ProcessResult{}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/process_video", strings.NewReader(`{"url":"https://youtu.be/dQw4w9WgXcQ"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawCancel, "service must not observe client cancellation")
}

func TestInternalErrorsHideDetail(t *testing.T) {
	svc := &mockVideoService{
		processFn: func(ctx context.Context, videoURL string) (*ProcessResult, error) {
			return nil, errors.New("secret path /var/lib/thing")
		},
	}

	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/process_video", VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestRefreshQuestionsEndpoint(t *testing.T) {
	svc := &mockVideoService{
		refreshFn: func(ctx context.Context, videoURL string) (QuestionSet, error) {
			return SentinelQuestions(), nil
		},
	}

	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/refresh_questions", VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, SentinelQuestions(), resp.Questions)
}

func TestAskQuestionEndpoint(t *testing.T) {
	var gotHistory []ChatTurn
	svc := &mockVideoService{
		askFn: func(ctx context.Context, videoURL, question string, history []ChatTurn) (string, error) {
			gotHistory = history
			return "Because.", nil
		},
	}
	h := newTestRouter(svc)

	body := `{"url":"https://youtu.be/dQw4w9WgXcQ","question":"Why?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`
	rec := doJSON(t, h, http.MethodPost, "/ask_question", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Because."}`, rec.Body.String())
	assert.Equal(t, []ChatTurn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, gotHistory)

	rec = doJSON(t, h, http.MethodPost, "/ask_question", AskRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&mockVideoService{})

	req := httptest.NewRequest(http.MethodOptions, "/process_video", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/process_video", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ProviderCallsTotal.WithLabelValues(ProviderChat, "answer", ProviderStatusSuccess).Inc()

	rec := doJSON(t, newTestRouter(&mockVideoService{}), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eduvision_provider_calls_total")
}

func TestRecovererReturnsJSON(t *testing.T) {
	svc := &mockVideoService{
		processFn: func(ctx context.Context, videoURL string) (*ProcessResult, error) {
			panic("boom")
		},
	}

	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/process_video", VideoRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error)
}
