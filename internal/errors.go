package internal

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidReference means the input does not point at a recognizable video
	ErrInvalidReference = errors.New("invalid or unsupported YouTube URL format")
	// ErrTranscriptUnavailable means the video has no transcript or transcripts are disabled
	ErrTranscriptUnavailable = errors.New("could not retrieve transcript")
	// ErrUpstream wraps any provider or transport failure
	ErrUpstream = errors.New("upstream provider failure")
	// ErrValidation means generated content violated the required schema
	ErrValidation = errors.New("generated content failed validation")
	// ErrInvalidInput covers malformed requests other than the video reference
	ErrInvalidInput = errors.New("invalid request")
)

// StatusCode maps an error from the request path to an HTTP status class
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidReference), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTranscriptUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns a short machine-readable name for err
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_request"
	case errors.Is(err, ErrTranscriptUnavailable):
		return "transcript_unavailable"
	case errors.Is(err, ErrUpstream):
		return "upstream_failure"
	default:
		return "internal_error"
	}
}
