package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/ui/components"
	"github.com/abhisek/signiz/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	switch {
	case s.answered:
		body = s.feedbackView(cw)
	case s.flow.Done():
		body = s.summaryView(cw)
	default:
		it, _ := s.flow.Current()
		switch it.Kind {
		case content.KindLesson:
			body = s.cardView(it, cw)
		case content.KindMultipleChoice:
			body = components.Card(s.mc.View(), cw)
		case content.KindPractical:
			body = s.practicalView(it, cw)
		}
	}

	sections := []string{s.stepper(cw), body}
	if s.warning != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Accent).Width(cw).Align(lipgloss.Center).Render(s.warning))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}

// stepper draws one dot per item: done, current, upcoming.
func (s *Screen) stepper(cw int) string {
	var b strings.Builder
	for i := 0; i < s.flow.Len(); i++ {
		switch {
		case s.flow.Done() || i < s.flow.Index():
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Render("●"))
		case i == s.flow.Index():
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Highlight).Render("◉"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("○"))
		}
		b.WriteString(" ")
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.TrimSpace(b.String()))
}

func (s *Screen) cardView(it content.Item, cw int) string {
	lines := []string{
		theme.Title.Render(it.Title),
		theme.Body.Width(cw - 6).Render(it.Description),
	}
	if src := content.ResolveMedia(s.deps.AssetsURL, it.MediaSrc); src != "" {
		lines = append(lines, theme.Hint.Render(mediaLabel(it.MediaType)+src))
	}
	return components.Card(strings.Join(lines, "\n\n"), cw)
}

func (s *Screen) practicalView(it content.Item, cw int) string {
	lines := []string{
		theme.Badge.Render("CAMERA TEST"),
		theme.Title.Render("Sign: " + it.Sign),
		theme.Body.Width(cw - 6).Render(it.Instructions),
		theme.Hint.Render("Press Enter when you are ready to record."),
	}
	return components.Card(strings.Join(lines, "\n\n"), cw)
}

func (s *Screen) feedbackView(cw int) string {
	var head string
	if s.correct {
		head = theme.Correct.Render("Correct! ★")
	} else {
		head = theme.Incorrect.Render("Not quite.") + "\n" +
			theme.Body.Render("The answer is "+s.mc.Correct+".")
	}
	return components.Card(s.mc.View()+"\n"+head, cw)
}

func (s *Screen) summaryView(cw int) string {
	sum := s.flow.Summary()
	lines := []string{
		theme.Title.Render(fmt.Sprintf("You finished %s!", sum.Category.Title())),
		theme.Body.Render(fmt.Sprintf("Score: %d / %d", sum.Score, sum.TotalTests)),
		components.NewProgressBar("", sum.Percent(), cw-8).View(),
	}
	switch p := sum.Percent(); {
	case p == 100:
		lines = append(lines, theme.Correct.Render("Perfect! Every test passed."))
	case p >= 50:
		lines = append(lines, theme.Body.Render("Great work! Try again to beat your score."))
	default:
		lines = append(lines, theme.Body.Render("Good practice! Every try makes you better."))
	}
	return components.Card(strings.Join(lines, "\n\n"), cw)
}

func mediaLabel(t content.MediaType) string {
	if t == content.MediaVideo {
		return "Watch: "
	}
	return "Look: "
}
