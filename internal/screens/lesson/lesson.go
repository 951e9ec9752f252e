// Package lesson walks the learner through one category.
package lesson

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/lessonflow"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/router"
	"github.com/abhisek/signiz/internal/screen"
	"github.com/abhisek/signiz/internal/screens/practical"
	"github.com/abhisek/signiz/internal/store"
	"github.com/abhisek/signiz/internal/ui/components"
	"github.com/abhisek/signiz/internal/ui/layout"
)

// Deps are shared by every lesson screen.
type Deps struct {
	Ledger    *progress.Ledger
	Events    store.EventRepo
	Practical practical.Deps
	AssetsURL string
	Logger    *zap.Logger
}

type Screen struct {
	flow *lessonflow.Flow
	deps Deps

	mc       components.MultiChoice
	answered bool
	correct  bool
	warning  string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New opens section where the learner left off.
func New(ctx context.Context, section content.Section, deps Deps) (*Screen, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	flow, err := lessonflow.Start(ctx, section, deps.Ledger,
		lessonflow.WithEvents(deps.Events),
		lessonflow.WithLogger(deps.Logger.With(zap.String("category", string(section.Name)))))
	if err != nil {
		return nil, err
	}
	s := &Screen{flow: flow, deps: deps}
	s.load()
	return s, nil
}

// Flow exposes the underlying flow for tests.
func (s *Screen) Flow() *lessonflow.Flow { return s.flow }

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string {
	return s.flow.Category().Title()
}

func (s *Screen) Status() string {
	if s.flow.Done() {
		return fmt.Sprintf("%d/%d ★", s.flow.Score(), s.flow.TotalTests())
	}
	return fmt.Sprintf("%d of %d", s.flow.Index()+1, s.flow.Len())
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.answered {
		return []layout.KeyHint{{Key: "Enter", Description: "Next"}}
	}
	if s.flow.Done() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Back to categories"},
			{Key: "R", Description: "Start over"},
		}
	}
	it, _ := s.flow.Current()
	switch {
	case it.Kind == content.KindMultipleChoice:
		return []layout.KeyHint{{Key: "A-D", Description: "Answer"}, {Key: "Esc", Description: "Back"}}
	case it.Kind == content.KindPractical:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start the test"},
			{Key: "S", Description: "Skip"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Enter", Description: "Next"}, {Key: "Esc", Description: "Back"}}
}

// load prepares widgets for the current item.
func (s *Screen) load() {
	s.answered, s.correct = false, false
	if it, ok := s.flow.Current(); ok && it.Kind == content.KindMultipleChoice {
		s.mc = components.NewMultiChoice(it.Question, it.Options, it.CorrectAnswer)
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case practical.PassedMsg:
		s.step(s.flow.PassPractical(ctx))
		return s, nil
	case practical.SkippedMsg:
		s.step(s.flow.SkipPractical(ctx))
		return s, nil
	case tea.KeyPressMsg:
		return s, s.handleKey(ctx, msg)
	}
	return s, nil
}

func (s *Screen) handleKey(ctx context.Context, msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	// Feedback for an answered question stays up until dismissed, even
	// though the flow has already moved on.
	if s.answered {
		if key == "enter" || key == "space" || key == "right" {
			s.load()
		}
		return nil
	}

	if s.flow.Done() {
		switch key {
		case "enter", "space":
			return func() tea.Msg { return router.PopScreenMsg{} }
		case "r", "R":
			s.flow.Restart()
			s.warning = ""
			s.load()
		}
		return nil
	}

	it, _ := s.flow.Current()
	switch it.Kind {
	case content.KindLesson:
		if key == "enter" || key == "space" || key == "right" {
			s.step(s.flow.CompleteLesson(ctx))
		}

	case content.KindMultipleChoice:
		s.mc, _ = s.mc.Update(msg)
		if s.mc.Submitted {
			correct, err := s.flow.AnswerMultipleChoice(ctx, s.mc.Answer())
			s.answered, s.correct = true, correct
			s.note(err)
		}

	case content.KindPractical:
		switch key {
		case "enter", "space":
			test, ok := it.Practical(s.flow.Category(), s.deps.AssetsURL)
			if !ok {
				return nil
			}
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: practical.New(test, s.deps.Practical)}
			}
		case "s", "S":
			s.step(s.flow.SkipPractical(ctx))
		}
	}
	return nil
}

// step applies the result of a flow step and moves to the next item.
func (s *Screen) step(err error) {
	s.note(err)
	s.load()
}

func (s *Screen) note(err error) {
	switch {
	case err == nil:
	case errors.Is(err, lessonflow.ErrNotSaved):
		s.warning = "Your progress could not be saved this time."
	default:
		s.deps.Logger.Warn("lesson step rejected", zap.Error(err))
	}
}
