package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

var (
	// ErrNoTranscriptFound means the caption download produced no usable subtitles
	ErrNoTranscriptFound = errors.New("no transcript found")
	// ErrTranscriptsDisabled means the video advertises neither manual nor automatic captions
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
)

// TranscriptProvider fetches the timed text segments of a video's captions
type TranscriptProvider interface {
	FetchSegments(ctx context.Context, videoID string) ([]string, error)
}

// VideoMetadata contains YouTube video information
type VideoMetadata struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Channel     string         `json:"channel"`
	Duration    float64        `json:"duration"`
	Categories  []string       `json:"categories"`
	Tags        []string       `json:"tags"`
	Chapters    []VideoChapter `json:"chapters"`
	HasCaptions bool           `json:"has_captions"`
}

// VideoChapter represents a video chapter marker
type VideoChapter struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
}

// YouTube fetches captions and metadata with yt-dlp
type YouTube struct {
	tempDir  string
	language string
	logger   *slog.Logger

	install   func(ctx context.Context) error
	installMu sync.Mutex
	installed bool
}

// NewYouTube creates a caption provider that downloads into tempDir
func NewYouTube(tempDir, language string, logger *slog.Logger) *YouTube {
	if language == "" {
		language = "en"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{
		tempDir:  tempDir,
		language: language,
		logger:   logger,
		install:  installYTDLP,
	}
}

func installYTDLP(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	return err
}

// ensureInstalled makes sure a yt-dlp binary is available. Only success is
// remembered, so a failed install is attempted again by the next call.
func (yt *YouTube) ensureInstalled(ctx context.Context) error {
	yt.installMu.Lock()
	defer yt.installMu.Unlock()

	if yt.installed {
		return nil
	}
	if err := yt.install(ctx); err != nil {
		return fmt.Errorf("installing yt-dlp: %w", err)
	}
	yt.installed = true
	return nil
}

// Metadata fetches video details using go-ytdlp
func (yt *YouTube) Metadata(ctx context.Context, videoURL string) (*VideoMetadata, error) {
	if err := yt.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	yt.logger.Debug("extracting video metadata", "url", videoURL)

	dl := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		SkipDownload()

	result, err := dl.Run(ctx, videoURL)
	if err != nil {
		yt.logger.Debug("metadata extraction failed", "url", videoURL, "stderr", stderrOf(result))
		return nil, fmt.Errorf("extracting video metadata: %w", err)
	}

	return parseMetadata([]byte(result.Stdout))
}

// parseMetadata decodes yt-dlp's JSON dump, deriving caption availability
func parseMetadata(data []byte) (*VideoMetadata, error) {
	var metadata VideoMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	var rawData map[string]any
	if err := json.Unmarshal(data, &rawData); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}
	metadata.HasCaptions = extractSubtitleInfo(rawData)

	return &metadata, nil
}

// FetchSegments downloads the video's captions as SRT and returns their text blocks.
// Each call works in its own temporary directory so concurrent fetches never collide.
func (yt *YouTube) FetchSegments(ctx context.Context, videoID string) ([]string, error) {
	watchURL := NewVideoIdentity(videoID).WatchURL()

	metadata, err := yt.Metadata(ctx, watchURL)
	if err != nil {
		return nil, err
	}
	if !metadata.HasCaptions {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, videoID)
	}

	if err := EnsureDirs(yt.tempDir); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	workDir, err := os.MkdirTemp(yt.tempDir, videoID+"-")
	if err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	yt.logger.Debug("downloading subtitles", "video_id", videoID, "language", yt.language)

	dl := ytdlp.New().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(yt.language).
		ConvertSubs("srt").
		SkipDownload().
		NoPlaylist().
		Output(filepath.Join(workDir, "%(id)s"))

	result, err := dl.Run(ctx, watchURL)
	if err != nil {
		yt.logger.Debug("subtitle download failed", "video_id", videoID, "stderr", stderrOf(result))
		return nil, fmt.Errorf("downloading subtitles: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(workDir, "*.srt"))
	if err != nil || len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTranscriptFound, videoID)
	}
	sort.Strings(files)

	content, err := os.ReadFile(files[0])
	if err != nil {
		return nil, fmt.Errorf("reading SRT file: %w", err)
	}

	segments := parseSRT(string(content))
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTranscriptFound, videoID)
	}
	return segments, nil
}

func stderrOf(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	return result.Stderr
}

// parseSRT extracts the text of each SRT block as one segment. Auto-generated
// captions roll: a block starts with the lines the previous block ended on.
// Those repeated leading lines are dropped, and a block left empty is skipped.
func parseSRT(content string) []string {
	var segments []string
	var prev []string

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for block := range strings.SplitSeq(content, "\n\n") {
		blockLines := strings.Split(strings.TrimSpace(block), "\n")
		if len(blockLines) < 3 {
			continue
		}
		// skip sequence number and timestamp
		var text []string
		for _, line := range blockLines[2:] {
			if line = strings.TrimSpace(line); line != "" {
				text = append(text, line)
			}
		}
		if len(text) == 0 {
			continue
		}

		fresh := text[rollingOverlap(prev, text):]
		prev = text
		if len(fresh) > 0 {
			segments = append(segments, strings.Join(fresh, " "))
		}
	}

	return segments
}

// rollingOverlap returns the number of leading lines of cur that repeat the
// trailing lines of prev
func rollingOverlap(prev, cur []string) int {
	for n := min(len(prev), len(cur)); n > 0; n-- {
		if slices.Equal(prev[len(prev)-n:], cur[:n]) {
			return n
		}
	}
	return 0
}

// extractSubtitleInfo extracts subtitle availability from yt-dlp JSON output
func extractSubtitleInfo(rawData map[string]any) bool {
	if subtitles, ok := rawData["subtitles"].(map[string]any); ok && len(subtitles) > 0 {
		return true
	}

	if autoCaptions, ok := rawData["automatic_captions"].(map[string]any); ok && len(autoCaptions) > 0 {
		return true
	}

	return false
}
