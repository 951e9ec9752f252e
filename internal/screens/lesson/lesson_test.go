package lesson

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/router"
	"github.com/abhisek/signiz/internal/screens/practical"
	"github.com/abhisek/signiz/internal/store"
)

var enter = tea.KeyPressMsg{Code: tea.KeyEnter}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func openFamily(t *testing.T, setup func(*progress.Ledger)) (*Screen, *progress.Ledger) {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ledger := progress.NewLedger(st.KVRepo())
	if setup != nil {
		setup(ledger)
	}
	section, err := content.Builtin().Section(content.CategoryFamily)
	require.NoError(t, err)

	s, err := New(context.Background(), section, Deps{Ledger: ledger, Events: st.EventRepo()})
	require.NoError(t, err)
	return s, ledger
}

func TestWalkFamilyToSummary(t *testing.T) {
	s, ledger := openFamily(t, nil)
	require.Equal(t, 0, s.Flow().Index())

	for i := 0; i < 3; i++ {
		s.Update(enter)
	}
	it, _ := s.Flow().Current()
	require.Equal(t, content.KindMultipleChoice, it.Kind)

	s.Update(keyPress('a'))
	assert.True(t, s.answered)
	assert.True(t, s.correct)
	assert.Contains(t, s.View(100, 40), "Correct!")

	s.Update(enter)
	assert.False(t, s.answered)
	assert.Equal(t, 4, s.Flow().Index())

	for i := 0; i < 3; i++ {
		s.Update(enter)
	}
	it, _ = s.Flow().Current()
	require.Equal(t, content.KindPractical, it.Kind)

	_, cmd := s.Update(enter)
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok, "expected the practical screen to be pushed")
	assert.Equal(t, "Sign: Family", push.Screen.Title())

	s.Update(practical.PassedMsg{LessonID: 8})
	require.True(t, s.Flow().Done())
	assert.Equal(t, "2/2 ★", s.Status())
	assert.Contains(t, s.View(100, 40), "You finished Family!")

	pct, err := ledger.CompletionPercentage(context.Background(), "FAMILY")
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	_, cmd = s.Update(enter)
	require.NotNil(t, cmd)
	_, ok = cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestWrongAnswerShowsCorrectOne(t *testing.T) {
	s, ledger := openFamily(t, func(l *progress.Ledger) {
		require.NoError(t, l.Update(context.Background(), "FAMILY", 2, 8, nil))
	})
	require.Equal(t, 3, s.Flow().Index(), "resumes after the last completed item")

	s.Update(keyPress('b'))
	require.True(t, s.answered)
	assert.False(t, s.correct)
	assert.Contains(t, s.View(100, 40), "The answer is Boy.")

	p, err := ledger.Get(context.Background(), "FAMILY")
	require.NoError(t, err)
	score, ok := p.Score(4)
	require.True(t, ok)
	assert.False(t, score.Passed)
}

func TestSkipPracticalAndRestart(t *testing.T) {
	s, _ := openFamily(t, func(l *progress.Ledger) {
		require.NoError(t, l.Update(context.Background(), "FAMILY", 6, 8, nil))
	})
	require.Equal(t, 7, s.Flow().Index())

	s.Update(keyPress('s'))
	require.True(t, s.Flow().Done())
	assert.Equal(t, 0, s.Flow().Score())

	s.Update(keyPress('r'))
	assert.False(t, s.Flow().Done())
	assert.Equal(t, 0, s.Flow().Index())
	assert.Equal(t, "1 of 8", s.Status())
}

func TestSkippedMsgFromPractical(t *testing.T) {
	s, ledger := openFamily(t, func(l *progress.Ledger) {
		require.NoError(t, l.Update(context.Background(), "FAMILY", 6, 8, nil))
	})
	s.Update(practical.SkippedMsg{LessonID: 8})
	require.True(t, s.Flow().Done())

	p, err := ledger.Get(context.Background(), "FAMILY")
	require.NoError(t, err)
	score, ok := p.Score(8)
	require.True(t, ok)
	assert.False(t, score.Passed)
	assert.True(t, strings.Contains(s.View(100, 40), "Score: 0 / 2"))
}
