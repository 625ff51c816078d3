package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// videoURLPattern matches watch, youtu.be, embed, shorts, live, /v/, /e/ and channel-path forms.
// The token is always the 11 character group.
var videoURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?|shorts|live)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID returns the 11 character token referenced by a YouTube URL
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if m := videoURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReference, raw)
}

// ExpandVideoID turns a bare video ID typed on the command line into its watch URL.
// Anything else is returned unchanged for the normalizer to judge.
func ExpandVideoID(arg string) string {
	arg = strings.TrimSpace(arg)
	if IsValidYouTubeID(arg) {
		return NewVideoIdentity(arg).WatchURL()
	}
	return arg
}

// NormalizeVideoURL derives the canonical identity for any supported URL shape
func NormalizeVideoURL(raw string) (VideoIdentity, error) {
	videoID, err := ExtractVideoID(raw)
	if err != nil {
		return "", err
	}
	return NewVideoIdentity(videoID), nil
}

// IsValidYouTubeID checks if a string looks like a valid YouTube video ID
func IsValidYouTubeID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// IsLikelyCommand checks if a string looks like it might be a mistyped command
func IsLikelyCommand(arg string) bool {
	if strings.Contains(arg, "/") || strings.Contains(arg, ".") {
		return false
	}
	return len(arg) <= 10 && !IsValidYouTubeID(arg)
}

// CollapseWhitespace replaces every whitespace run with a single space and trims the ends
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstWords returns the first n whitespace-delimited tokens of s joined by spaces
func FirstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// CleanupTempDir purges files from a temporary directory
func CleanupTempDir(tempDir string) error {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return fmt.Errorf("reading temp directory: %w", err)
	}

	for _, entry := range entries {
		filePath := filepath.Join(tempDir, entry.Name())
		if err := os.RemoveAll(filePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove temporary file %s: %v\n", filePath, err)
		}
	}

	// might still hold files written by a concurrent download
	_ = os.Remove(tempDir)
	return nil
}

// IsTerminal reports whether stdout is attached to a terminal
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour.
// Output that is not going to a terminal is returned unchanged.
func RenderMarkdown(content string) (string, error) {
	if !IsTerminal() {
		return content, nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(getTerminalWidth()),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	renderedContent, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return renderedContent, nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// EnsureDirs creates directories if needed
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAPIKey checks that a provider credential is set and returns a standardized error if not
func ValidateAPIKey(provider, envVar, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%s API key is required - set it in config.toml or the %s environment variable", provider, envVar)
	}
	return nil
}
