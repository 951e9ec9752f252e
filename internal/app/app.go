// Package app is the root Bubble Tea model: a screen stack framed by a
// header and a footer of key hints.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/router"
	"github.com/abhisek/signiz/internal/screen"
	"github.com/abhisek/signiz/internal/screens/home"
	"github.com/abhisek/signiz/internal/screens/lesson"
	"github.com/abhisek/signiz/internal/ui/layout"
)

// Options configure the TUI.
type Options struct {
	Catalog *content.Catalog
	Lesson  lesson.Deps

	// StartCategory opens a category straight away when set.
	StartCategory content.Category

	Logger *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	init   tea.Cmd
	logger *zap.Logger
	width  int
	height int
}

func newAppModel(opts Options) (AppModel, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Lesson.Logger == nil {
		opts.Lesson.Logger = opts.Logger
	}

	root := home.New(home.Deps{Catalog: opts.Catalog, Lesson: opts.Lesson})
	m := AppModel{
		router: router.New(root),
		init:   root.Init(),
		logger: opts.Logger,
	}

	if opts.StartCategory != "" {
		section, err := opts.Catalog.Section(opts.StartCategory)
		if err != nil {
			return AppModel{}, err
		}
		ls, err := lesson.New(context.Background(), section, opts.Lesson)
		if err != nil {
			return AppModel{}, fmt.Errorf("opening %s: %w", opts.StartCategory, err)
		}
		m.init = tea.Batch(m.init, m.router.Push(ls))
	}
	return m, nil
}

func (m AppModel) Init() tea.Cmd {
	return m.init
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.CloseAll()
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.EscCapturer); ok && c.CapturesEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	v.SetContent(m.frame())
	return v
}

func (m AppModel) frame() string {
	active := m.router.Active()
	var title, status string
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}
	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(m.hints(), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) hints() []layout.KeyHint {
	var hints []layout.KeyHint
	if hp, ok := m.router.Active().(screen.KeyHintProvider); ok {
		hints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program and blocks until it exits. Screens still
// on the stack are closed afterwards so the camera is always released.
func Run(opts Options) error {
	m, err := newAppModel(opts)
	if err != nil {
		return err
	}
	defer m.router.CloseAll()

	if _, err := tea.NewProgram(m).Run(); err != nil {
		m.logger.Error("tui exited with error", zap.Error(err))
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
