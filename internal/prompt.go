package internal

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// PromptData for template injection
type PromptData struct {
	Transcript string
	Words      int
	Count      int
	Refusal    string
}

// PromptManager renders the prompts sent to the generation providers.
// Only the summary prompt can be customized; the question and answer prompts
// carry output contracts the generators depend on.
type PromptManager struct {
	summary   *template.Template
	questions *template.Template
	answer    *template.Template
}

// NewPromptManager loads the embedded templates. A non-empty summaryPrompt
// overrides the summary template, either as a file path or a template string.
func NewPromptManager(summaryPrompt string) (*PromptManager, error) {
	summarySrc, err := defaultFS.ReadFile("prompts/summary.tmpl")
	if err != nil {
		return nil, fmt.Errorf("reading embedded summary prompt: %w", err)
	}

	if summaryPrompt != "" {
		if IsLikelyFilePath(summaryPrompt) && FileExists(summaryPrompt) {
			summarySrc, err = os.ReadFile(summaryPrompt)
			if err != nil {
				return nil, fmt.Errorf("reading prompt template: %w", err)
			}
		} else {
			summarySrc = []byte(summaryPrompt)
		}
	}

	pm := &PromptManager{}
	if pm.summary, err = template.New("summary").Parse(string(summarySrc)); err != nil {
		return nil, fmt.Errorf("parsing summary prompt template: %w", err)
	}
	if pm.questions, err = template.ParseFS(defaultFS, "prompts/questions.tmpl"); err != nil {
		return nil, fmt.Errorf("parsing questions prompt template: %w", err)
	}
	if pm.answer, err = template.ParseFS(defaultFS, "prompts/answer.tmpl"); err != nil {
		return nil, fmt.Errorf("parsing answer prompt template: %w", err)
	}
	return pm, nil
}

// SummaryPrompt asks for a summary of about words words of the full transcript
func (pm *PromptManager) SummaryPrompt(transcript string, words int) (string, error) {
	return execute(pm.summary, PromptData{Transcript: transcript, Words: words})
}

// QuestionsPrompt asks for count questions as a strict JSON array
func (pm *PromptManager) QuestionsPrompt(transcript string, count int) (string, error) {
	return execute(pm.questions, PromptData{Transcript: transcript, Count: count})
}

// AnswerSystemPrompt binds the assistant to the transcript
func (pm *PromptManager) AnswerSystemPrompt(transcript, refusal string) (string, error) {
	return execute(pm.answer, PromptData{Transcript: transcript, Refusal: refusal})
}

func execute(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s prompt template: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// IsLikelyFilePath uses heuristics to determine if a string is likely a file path
func IsLikelyFilePath(s string) bool {
	if strings.Contains(s, "{{") {
		return false
	}

	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	if strings.Contains(s, ".txt") || strings.Contains(s, ".md") ||
		strings.Contains(s, ".template") || strings.Contains(s, ".tmpl") {
		return true
	}

	// If it's longer than 200 characters, it's likely a prompt string
	if len(s) > 200 {
		return false
	}

	return !strings.Contains(s, " ") && !strings.Contains(s, "\n")
}
