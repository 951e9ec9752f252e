package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/store"
)

func TestProgressRows(t *testing.T) {
	played := time.Date(2026, 3, 4, 15, 30, 0, 0, time.Local)
	all := map[string]progress.CategoryProgress{
		"FAMILY": {
			LastCompletedIndex:   3,
			TestScores:           []progress.TestScore{{LessonID: 4, Score: 100, Passed: true}},
			CompletionPercentage: 50,
			LastAccessedDate:     played,
		},
		"COLORS": {LastCompletedIndex: 7, CompletionPercentage: 100, LastAccessedDate: played},
	}

	rows := progressRows(content.Builtin(), all)
	require.Len(t, rows, 6)

	assert.Equal(t, []string{"Family", "50%", "5", "1/2", "2026-03-04 15:30"}, rows[0])
	assert.Equal(t, []string{"Alphabets", "0%", "1", "-", "never"}, rows[1])
	assert.Equal(t, "Colors", rows[3][0])
	assert.Equal(t, "done", rows[3][2])
}

func TestSubmissionRows(t *testing.T) {
	at := time.Date(2026, 5, 6, 7, 8, 0, 0, time.Local)
	subs := []store.SubmissionEvent{
		{Timestamp: at, SubmissionEventData: store.SubmissionEventData{Category: "FAMILY", Sign: "Family", Score: 88, Passed: true}},
		{Timestamp: at, SubmissionEventData: store.SubmissionEventData{Category: "FOOD", Sign: "Apple", Score: 41.6}},
		{Timestamp: at, SubmissionEventData: store.SubmissionEventData{Category: "COLORS", Sign: "Red", Stage: "upload", Reason: "timeout"}},
	}

	rows := submissionRows(subs)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"05-06 07:08", "Family", "Family", "88", "passed"}, rows[0])
	assert.Equal(t, "41", rows[1][3])
	assert.Equal(t, "try again", rows[1][4])
	assert.Equal(t, "-", rows[2][3])
	assert.Equal(t, "upload failed: timeout", rows[2][4])
}

func TestCatalogRows(t *testing.T) {
	catalog := content.Builtin()

	cats := categoryRows(catalog)
	require.Len(t, cats, 6)
	assert.Equal(t, []string{"Family", "8", "2"}, cats[0])

	family, err := catalog.Section(content.CategoryFamily)
	require.NoError(t, err)
	items := itemRows(family)
	require.Len(t, items, 8)
	assert.Equal(t, []string{"1", "1", "lesson", "Boy"}, items[0])
	assert.Equal(t, "multiple-choice", items[3][2])
	assert.Equal(t, "Sign: Family", items[7][3])
}

func TestCostRows(t *testing.T) {
	rows, unknown := costRows([]store.ModelUsage{
		{Model: "gpt-4o-mini", Calls: 3, InputTokens: 1_000_000, OutputTokens: 1_000_000},
		{Model: "home-grown", Calls: 1, InputTokens: 10, OutputTokens: 10},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "$0.75", rows[0][4])
	assert.Equal(t, "?", rows[1][4])
	assert.Equal(t, []string{"home-grown"}, unknown)
	assert.Equal(t, []string{"TOTAL (partial)", "", "", "", "$0.75"}, rows[2])
}

func TestPurposeRowsTotals(t *testing.T) {
	rows := purposeRows([]store.PurposeUsage{
		{Purpose: "sign-eval", Calls: 2, InputTokens: 100, OutputTokens: 20, AvgLatencyMs: 900},
		{Purpose: "sign-eval-text", Calls: 1, InputTokens: 50, OutputTokens: 5, AvgLatencyMs: 300},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"sign-eval", "2", "100", "20", "120", "900"}, rows[0])
	assert.Equal(t, []string{"TOTAL", "3", "150", "25", "175"}, rows[2])
}

func TestLLMEventRowsFilter(t *testing.T) {
	events := []store.LLMEvent{
		{ID: 2, LLMRequestEventData: store.LLMRequestEventData{Purpose: "sign-eval", Model: "gpt-4o", Success: true}},
		{ID: 1, LLMRequestEventData: store.LLMRequestEventData{Purpose: "sign-eval-text", Model: "gpt-4o"}},
	}

	assert.Len(t, llmEventRows(events, ""), 2)
	rows := llmEventRows(events, "sign-eval-text")
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "✗", rows[0][7])
}
