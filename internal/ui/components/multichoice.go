package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/signiz/internal/ui/theme"
)

// MultiChoice asks one question with lettered options. Options can be
// picked with the arrow keys and Enter or by typing their letter.
type MultiChoice struct {
	Question  string
	Options   []string
	Correct   string
	Selected  int
	Submitted bool
	Chosen    int
}

func NewMultiChoice(question string, options []string, correct string) MultiChoice {
	return MultiChoice{Question: question, Options: options, Correct: correct, Chosen: -1}
}

func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter", "space":
		m.submit(m.Selected)
	default:
		if len(key) == 1 {
			if i := int(strings.ToLower(key)[0] - 'a'); i >= 0 && i < len(m.Options) {
				m.Selected = i
				m.submit(i)
			}
		}
	}
	return m, nil
}

func (m *MultiChoice) submit(i int) {
	m.Submitted = true
	m.Chosen = i
}

// Answer is the chosen option text, "" before submission.
func (m MultiChoice) Answer() string {
	if !m.Submitted || m.Chosen < 0 || m.Chosen >= len(m.Options) {
		return ""
	}
	return m.Options[m.Chosen]
}

func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.Answer() == m.Correct
}

func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%c)  %s", prefix, 'A'+rune(i), opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Submitted && opt == m.Correct:
			style = theme.Correct
		case m.Submitted && i == m.Chosen:
			style = theme.Incorrect
		case m.Submitted:
			style = style.Foreground(theme.TextDim)
		case i == m.Selected:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
