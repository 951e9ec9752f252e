// Package home is the category picker shown at launch.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/router"
	"github.com/abhisek/signiz/internal/screen"
	"github.com/abhisek/signiz/internal/screens/lesson"
	progressscreen "github.com/abhisek/signiz/internal/screens/progress"
	"github.com/abhisek/signiz/internal/ui/components"
	"github.com/abhisek/signiz/internal/ui/layout"
	"github.com/abhisek/signiz/internal/ui/theme"
)

// Deps are what home needs to open categories.
type Deps struct {
	Catalog *content.Catalog
	Lesson  lesson.Deps
}

type Screen struct {
	deps   Deps
	logger *zap.Logger

	menu   components.Menu
	all    map[string]progress.CategoryProgress
	notice string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

type progressLoadedMsg struct {
	all map[string]progress.CategoryProgress
	err error
}

type openFailedMsg struct {
	category content.Category
	err      error
}

func New(deps Deps) *Screen {
	logger := deps.Lesson.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Screen{deps: deps, logger: logger, all: map[string]progress.CategoryProgress{}}
	s.buildMenu()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.loadProgress
}

func (s *Screen) Title() string {
	return "Choose a category"
}

func (s *Screen) Status() string {
	return fmt.Sprintf("%d/%d done", s.completed(), len(s.deps.Catalog.Sections()))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Open"},
		{Key: "Q", Description: "Quit"},
	}
}

func (s *Screen) loadProgress() tea.Msg {
	all, err := s.deps.Lesson.Ledger.All(context.Background())
	return progressLoadedMsg{all: all, err: err}
}

// completed counts categories whose last item has been finished.
func (s *Screen) completed() int {
	n := 0
	for _, sec := range s.deps.Catalog.Sections() {
		if p, ok := s.all[string(sec.Name)]; ok && p.LastCompletedIndex >= len(sec.Items)-1 {
			n++
		}
	}
	return n
}

func (s *Screen) buildMenu() {
	sections := s.deps.Catalog.Sections()
	items := make([]components.MenuItem, 0, len(sections)+2)
	for _, sec := range sections {
		items = append(items, components.MenuItem{
			Label:  sec.Name.Title(),
			Detail: s.detail(sec),
			Action: func() tea.Cmd { return s.open(sec) },
		})
	}
	items = append(items,
		components.MenuItem{Label: "My progress", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: progressscreen.New(s.deps.Catalog, s.deps.Lesson.Ledger, s.logger)}
			}
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)

	selected := s.menu.Selected
	s.menu = components.NewMenu(items)
	if selected < len(items) {
		s.menu.Selected = selected
	}
}

func (s *Screen) detail(sec content.Section) string {
	p, ok := s.all[string(sec.Name)]
	switch {
	case !ok:
		return "new"
	case p.LastCompletedIndex >= len(sec.Items)-1:
		return "✓ done"
	}
	return fmt.Sprintf("%d%%", p.CompletionPercentage)
}

func (s *Screen) open(sec content.Section) tea.Cmd {
	return func() tea.Msg {
		sc, err := lesson.New(context.Background(), sec, s.deps.Lesson)
		if err != nil {
			return openFailedMsg{category: sec.Name, err: err}
		}
		return router.PushScreenMsg{Screen: sc}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case progressLoadedMsg:
		if msg.err != nil {
			s.logger.Warn("failed to load progress", zap.Error(msg.err))
			s.notice = "Your progress could not be loaded."
			return s, nil
		}
		s.all = msg.all
		s.notice = ""
		s.buildMenu()
		return s, nil

	case screen.RefreshMsg:
		return s, s.loadProgress

	case openFailedMsg:
		s.logger.Warn("failed to open category",
			zap.String("category", string(msg.category)), zap.Error(msg.err))
		s.notice = fmt.Sprintf("%s could not be opened right now.", msg.category.Title())
		return s, nil

	case tea.KeyPressMsg:
		if k := msg.String(); k == "q" || k == "Q" {
			return s, tea.Quit
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("Let's learn to sign!"))
	if !layout.IsCompact(width, height+8) {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
			Render(RenderMascot(s.mood())))
	}
	sections = append(sections, components.Card(s.menu.View(cw-8), cw))
	if s.notice != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Accent).Width(cw).
			Align(lipgloss.Center).Render(s.notice))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}

func (s *Screen) mood() MascotMood {
	switch done := s.completed(); {
	case done == len(s.deps.Catalog.Sections()):
		return MascotStar
	case done > 0:
		return MascotCheer
	}
	return MascotWave
}
