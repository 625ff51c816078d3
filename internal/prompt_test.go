package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	pm := mustPrompts(t)

	summary, err := pm.SummaryPrompt("the transcript", 250)
	require.NoError(t, err)
	assert.Contains(t, summary, "about 250 words")
	assert.Contains(t, summary, `"the transcript"`)

	questions, err := pm.QuestionsPrompt("the transcript", 10)
	require.NoError(t, err)
	assert.Contains(t, questions, "Generate 10 multiple-choice questions")
	assert.Contains(t, questions, "exactly 4 options")

	system, err := pm.AnswerSystemPrompt("the transcript", RefusalSentence)
	require.NoError(t, err)
	assert.Contains(t, system, RefusalSentence)
	assert.Contains(t, system, "the transcript")
}

func TestSummaryPromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Summarize: {{.Transcript}}\n"), 0644))

	pm, err := NewPromptManager(path)
	require.NoError(t, err)

	got, err := pm.SummaryPrompt("x", 250)
	require.NoError(t, err)
	assert.Equal(t, "Summarize: x", got)
}

func TestSummaryPromptInvalidTemplate(t *testing.T) {
	_, err := NewPromptManager("broken {{.Transcript")
	assert.Error(t, err)
}

func TestIsLikelyFilePath(t *testing.T) {
	assert.True(t, IsLikelyFilePath("./prompt.txt"))
	assert.True(t, IsLikelyFilePath("prompt.tmpl"))
	assert.False(t, IsLikelyFilePath("Summarize {{.Transcript}}"))
	assert.False(t, IsLikelyFilePath("write a short summary please"))
}
