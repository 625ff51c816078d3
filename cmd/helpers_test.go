package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtzll/eduvision/internal"
)

func TestCheckVideoArg(t *testing.T) {
	assert.NoError(t, checkVideoArg(rootCmd, "dQw4w9WgXcQ"))
	assert.NoError(t, checkVideoArg(rootCmd, "https://youtu.be/dQw4w9WgXcQ"))

	err := checkVideoArg(rootCmd, "serv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean: serve")

	err = checkVideoArg(rootCmd, "xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--help")
}

func TestQuestionsMarkdown(t *testing.T) {
	questions := internal.QuestionSet{{
		Question: "Who sings it?",
		Options:  []string{"Rick", "Morty", "Summer", "Beth"},
		Answer:   "Rick",
	}}

	withAnswers := questionsMarkdown(questions, true)
	assert.True(t, strings.HasPrefix(withAnswers, "1. **Who sings it?**"))
	assert.Contains(t, withAnswers, "A) Rick ✓")
	assert.Contains(t, withAnswers, "D) Beth\n")

	hidden := questionsMarkdown(questions, false)
	assert.NotContains(t, hidden, "✓")
}

func TestBuildInfoKeepsLinkerValues(t *testing.T) {
	oldCommit, oldDate := commit, date
	t.Cleanup(func() { commit, date = oldCommit, oldDate })

	commit, date = "abc123", "2025-01-02"
	info := buildInfo()
	assert.Equal(t, version, info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2025-01-02", info.Date)
}
