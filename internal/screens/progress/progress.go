// Package progress shows per-category completion and lets a grown-up clear
// a category.
package progress

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/screen"
	"github.com/abhisek/signiz/internal/ui/components"
	"github.com/abhisek/signiz/internal/ui/layout"
	"github.com/abhisek/signiz/internal/ui/theme"
)

type Screen struct {
	catalog *content.Catalog
	ledger  *progress.Ledger
	logger  *zap.Logger

	all      map[string]progress.CategoryProgress
	selected int

	confirming bool
	input      components.TextInput
	notice     string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.EscCapturer     = (*Screen)(nil)
)

type loadedMsg struct {
	all map[string]progress.CategoryProgress
	err error
}

type resetMsg struct {
	category content.Category
	err      error
}

func New(catalog *content.Catalog, ledger *progress.Ledger, logger *zap.Logger) *Screen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{catalog: catalog, ledger: ledger, logger: logger}
}

func (s *Screen) Init() tea.Cmd { return s.load }

func (s *Screen) Title() string { return "My progress" }

func (s *Screen) CapturesEsc() bool { return s.confirming }

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{{Key: "Enter", Description: "Confirm"}, {Key: "Esc", Description: "Cancel"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "X", Description: "Clear category"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) load() tea.Msg {
	all, err := s.ledger.All(context.Background())
	return loadedMsg{all: all, err: err}
}

func (s *Screen) current() content.Section {
	return s.catalog.Sections()[s.selected]
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			s.logger.Warn("failed to load progress", zap.Error(msg.err))
			s.notice = "Progress could not be loaded."
			return s, nil
		}
		s.all = msg.all
		return s, nil

	case resetMsg:
		if msg.err != nil {
			s.logger.Warn("failed to reset category", zap.String("category", string(msg.category)), zap.Error(msg.err))
			s.notice = "Progress could not be cleared."
			return s, nil
		}
		s.notice = fmt.Sprintf("%s was cleared.", msg.category.Title())
		return s, s.load

	case tea.KeyPressMsg:
		if s.confirming {
			return s, s.handleConfirm(msg)
		}
		switch msg.String() {
		case "up", "k":
			s.selected = max(s.selected-1, 0)
		case "down", "j":
			s.selected = min(s.selected+1, len(s.catalog.Sections())-1)
		case "x", "X":
			s.confirming = true
			s.notice = ""
			s.input = components.NewTextInput(string(s.current().Name), 32)
			return s, s.input.Init()
		}
		return s, nil
	}

	if s.confirming {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// handleConfirm runs while the typed confirmation is open.
func (s *Screen) handleConfirm(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.confirming = false
		return nil
	case "enter":
		name := s.current().Name
		if !s.input.Matches(string(name)) {
			s.notice = fmt.Sprintf("Type %s to clear it.", name)
			return nil
		}
		s.confirming = false
		return func() tea.Msg {
			return resetMsg{category: name, err: s.ledger.Reset(context.Background(), string(name))}
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	rows := make([]string, 0, len(s.catalog.Sections()))
	for i, sec := range s.catalog.Sections() {
		p, ok := s.all[string(sec.Name)]
		bar := components.ProgressBar{Label: sec.Name.Title(), LabelWidth: 10, Width: cw - 6}
		if ok {
			bar.Percent = p.CompletionPercentage
		}
		marker := "  "
		if i == s.selected {
			marker = theme.Selected.Render("▸ ")
		}
		rows = append(rows, marker+bar.View())
		if ok {
			rows = append(rows, "    "+theme.Hint.Render(detailLine(sec, p)))
		}
	}

	sections := []string{theme.Title.Width(cw).Render("How far you've come"), components.Card(strings.Join(rows, "\n"), cw)}
	if s.confirming {
		sections = append(sections, components.Card(
			theme.Body.Render(fmt.Sprintf("Type %s to clear it:", s.current().Name))+"\n"+s.input.View(), cw))
	}
	if s.notice != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Accent).Width(cw).Align(lipgloss.Center).Render(s.notice))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}

// detailLine lists test results in catalog order and when the category was
// last played.
func detailLine(sec content.Section, p progress.CategoryProgress) string {
	var tests []string
	for _, it := range sec.Items {
		if !it.IsTest() {
			continue
		}
		score, ok := p.Score(it.ID)
		switch {
		case !ok:
			tests = append(tests, "·")
		case score.Passed:
			tests = append(tests, "✓")
		default:
			tests = append(tests, "✗")
		}
	}
	line := "tests " + strings.Join(tests, " ")
	if !p.LastAccessedDate.IsZero() {
		line += "   last played " + p.LastAccessedDate.Local().Format("Jan 2")
	}
	return line
}
