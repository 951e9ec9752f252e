package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/signiz/internal/screen"
)

type stubScreen struct {
	title   string
	initRan bool
	closed  int
	got     []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.got = append(s.got, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

// closingScreen holds a resource released on Close.
type closingScreen struct {
	stubScreen
}

func (c *closingScreen) Close() { c.closed++ }

type answerMsg struct{ n int }

func TestPushAndPop(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)

	lesson := &stubScreen{title: "lesson"}
	r.Update(PushScreenMsg{Screen: lesson})
	if r.Depth() != 2 || r.Active().Title() != "lesson" {
		t.Fatalf("expected lesson on top at depth 2, got %q at %d", r.Active().Title(), r.Depth())
	}
	if !lesson.initRan {
		t.Fatal("expected Init() to run on pushed screen")
	}

	cmd := r.Update(PopScreenMsg{})
	if r.Depth() != 1 || r.Active().Title() != "home" {
		t.Fatalf("expected home after pop, got %q", r.Active().Title())
	}
	if cmd == nil {
		t.Fatal("expected a refresh command after pop")
	}
	if _, ok := cmd().(screen.RefreshMsg); !ok {
		t.Fatal("expected RefreshMsg after pop")
	}

	if r.Pop() != nil || r.Depth() != 1 {
		t.Fatalf("root must never be popped, depth %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)

	progress := &stubScreen{title: "progress"}
	r.Update(ReplaceScreenMsg{Screen: progress})
	if r.Depth() != 1 || r.Active().Title() != "progress" {
		t.Fatalf("expected root replaced, got %q at %d", r.Active().Title(), r.Depth())
	}
	if !progress.initRan {
		t.Fatal("expected Init() to run on replaced screen")
	}

	r.Push(&stubScreen{title: "lesson"})
	r.Replace(&stubScreen{title: "summary"})
	if r.Depth() != 2 || r.Active().Title() != "summary" {
		t.Fatalf("expected summary at depth 2, got %q at %d", r.Active().Title(), r.Depth())
	}
}

func TestClosersAreClosedWhenLeaving(t *testing.T) {
	r := New(&stubScreen{title: "home"})

	practical := &closingScreen{stubScreen{title: "practical"}}
	r.Push(practical)
	r.Pop()
	if practical.closed != 1 {
		t.Fatalf("expected Close on pop, got %d", practical.closed)
	}

	replaced := &closingScreen{stubScreen{title: "practical"}}
	r.Push(replaced)
	r.Replace(&stubScreen{title: "lesson"})
	if replaced.closed != 1 {
		t.Fatalf("expected Close on replace, got %d", replaced.closed)
	}

	onQuit := &closingScreen{stubScreen{title: "practical"}}
	r.Push(onQuit)
	r.CloseAll()
	if onQuit.closed != 1 {
		t.Fatalf("expected Close on quit, got %d", onQuit.closed)
	}
}

func TestMessagesGoToActiveScreen(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)
	lesson := &stubScreen{title: "lesson"}
	r.Push(lesson)

	r.Update(answerMsg{n: 1})
	r.Update(PopScreenMsg{})
	r.Update(answerMsg{n: 2})

	if len(lesson.got) != 1 || lesson.got[0].(answerMsg).n != 1 {
		t.Fatalf("lesson got %v", lesson.got)
	}
	if len(home.got) != 1 || home.got[0].(answerMsg).n != 2 {
		t.Fatalf("home got %v", home.got)
	}
	r.Push(lesson)
	r.Update(PopScreenMsg{Result: answerMsg{n: 3}})
	if r.Active() != home || len(home.got) != 2 || home.got[1].(answerMsg).n != 3 {
		t.Fatalf("expected result delivered to home after pop, got %v", home.got)
	}

	if r.View(80, 24) != "home" {
		t.Fatalf("expected home view, got %q", r.View(80, 24))
	}
}
