package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody bounds JSON request bodies; history can carry a long conversation
const maxRequestBody = 1 << 20

// VideoService is what the HTTP surface needs from the application
type VideoService interface {
	Status() Status
	ProcessVideo(ctx context.Context, videoURL string) (*ProcessResult, error)
	RefreshQuestions(ctx context.Context, videoURL string) (QuestionSet, error)
	AskQuestion(ctx context.Context, videoURL, question string, history []ChatTurn) (string, error)
}

// VideoRequest is the body of /process_video and /refresh_questions
type VideoRequest struct {
	URL string `json:"url"`
}

// AskRequest is the body of /ask_question
type AskRequest struct {
	URL      string     `json:"url"`
	Question string     `json:"question"`
	History  []ChatTurn `json:"history"`
}

// QuestionsResponse is returned by /refresh_questions
type QuestionsResponse struct {
	Questions QuestionSet `json:"questions"`
}

// AnswerResponse is returned by /ask_question
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

// WriteError writes an ErrorResponse
func WriteError(w http.ResponseWriter, status int, code, detail string) {
	JSON(w, status, ErrorResponse{Error: code, Detail: detail})
}

// Handler serves the EduVision HTTP API
type Handler struct {
	service VideoService
	logger  *slog.Logger
}

// NewHandler creates a handler for service
func NewHandler(service VideoService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Router builds the chi router with middleware, CORS and all routes
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(Recoverer(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Root)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/process_video", h.ProcessVideo)
	r.Post("/refresh_questions", h.RefreshQuestions)
	r.Post("/ask_question", h.AskQuestion)

	return r
}

// Root reports liveness
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.service.Status())
}

// ProcessVideo handles POST /process_video
func (h *Handler) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Work already started runs to completion even if the client goes away
	result, err := h.service.ProcessVideo(context.WithoutCancel(r.Context()), req.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// RefreshQuestions handles POST /refresh_questions
func (h *Handler) RefreshQuestions(w http.ResponseWriter, r *http.Request) {
	var req VideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	questions, err := h.service.RefreshQuestions(context.WithoutCancel(r.Context()), req.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, QuestionsResponse{Questions: questions})
}

// AskQuestion handles POST /ask_question
func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	answer, err := h.service.AskQuestion(context.WithoutCancel(r.Context()), req.URL, req.Question, req.History)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, AnswerResponse{Answer: answer})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	detail := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, ErrUpstream) {
		detail = "internal server error"
	}

	h.logger.Warn("request failed",
		slog.String("request_id", GetRequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	WriteError(w, status, ErrorCode(err), detail)
}

// NewHTTPServer builds the http.Server for config
func NewHTTPServer(config *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests for
// up to config.ShutdownTimeout
func Serve(ctx context.Context, srv *http.Server, config *Config, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
