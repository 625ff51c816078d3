package internal

import (
	"fmt"
	"strings"
)

// ArtifactKind partitions the cache namespace for a single video
type ArtifactKind string

const (
	KindTranscript ArtifactKind = "transcript"
	KindSummary    ArtifactKind = "summary"
	KindQuestions  ArtifactKind = "questions"
)

// ArtifactKinds lists every kind in a stable order
var ArtifactKinds = []ArtifactKind{KindTranscript, KindSummary, KindQuestions}

// ParseArtifactKind converts a user-supplied kind name into an ArtifactKind
func ParseArtifactKind(s string) (ArtifactKind, error) {
	kind := ArtifactKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range ArtifactKinds {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown artifact kind %q (expected transcript, summary or questions)", s)
}

// VideoIdentity is the canonical cache key root for one video, e.g. "youtube_video_dQw4w9WgXcQ"
type VideoIdentity string

const identityPrefix = "youtube_video_"

// NewVideoIdentity builds the identity for an 11 character video token
func NewVideoIdentity(videoID string) VideoIdentity {
	return VideoIdentity(identityPrefix + videoID)
}

// VideoID returns the platform token embedded in the identity
func (id VideoIdentity) VideoID() string {
	return strings.TrimPrefix(string(id), identityPrefix)
}

// WatchURL returns the canonical watch URL for the identity
func (id VideoIdentity) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + id.VideoID()
}

func (id VideoIdentity) String() string {
	return string(id)
}

// Question is a single multiple-choice comprehension question
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuestionSet is the ordered list of questions generated for a video
type QuestionSet []Question

// Role identifies the author of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// ChatTurn is one message in a Q&A conversation
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProcessResult is the combined output of a full processing request
type ProcessResult struct {
	Transcript     string      `json:"transcript"`
	Summary        string      `json:"summary"`
	Questions      QuestionSet `json:"questions"`
	ProcessingTime string      `json:"processing_time"`
	VideoURL       string      `json:"video_url"`
}

// Status is the static health payload
type Status struct {
	Status string `json:"status"`
}
