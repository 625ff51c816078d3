package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// UIManager handles all user interface concerns (status spinners and messages)
type UIManager interface {
	NewSpinner(description string) Spinner

	Printf(format string, args ...any)
	Println(args ...any)
}

// Spinner shows that a long-running step is in progress
type Spinner interface {
	Describe(description string)
	Finish()
}

// StandardUIManager handles normal UI operations
type StandardUIManager struct {
	w     io.Writer
	quiet bool
}

// NewUIManager writes status to stderr; quiet suppresses all of it
func NewUIManager(quiet bool) UIManager {
	return &StandardUIManager{
		w:     os.Stderr,
		quiet: quiet || !isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// NewSpinner starts an indeterminate spinner that animates until Finish
func (ui *StandardUIManager) NewSpinner(description string) Spinner {
	if ui.quiet {
		return silentSpinner{}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(ui.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)

	s := &visibleSpinner{bar: bar, done: make(chan struct{})}
	go s.tick()
	return s
}

// Printf writes a status line
func (ui *StandardUIManager) Printf(format string, args ...any) {
	if !ui.quiet {
		fmt.Fprintf(ui.w, format, args...)
	}
}

// Println writes a status line
func (ui *StandardUIManager) Println(args ...any) {
	if !ui.quiet {
		fmt.Fprintln(ui.w, args...)
	}
}

type visibleSpinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	once sync.Once
}

func (s *visibleSpinner) tick() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.bar.Add(1)
		}
	}
}

func (s *visibleSpinner) Describe(description string) {
	s.bar.Describe(description)
}

func (s *visibleSpinner) Finish() {
	s.once.Do(func() {
		close(s.done)
		_ = s.bar.Finish()
	})
}

type silentSpinner struct{}

func (silentSpinner) Describe(string) {}
func (silentSpinner) Finish()         {}
