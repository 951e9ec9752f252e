package practical

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/signiz/internal/recorder"
	"github.com/abhisek/signiz/internal/ui/components"
	"github.com/abhisek/signiz/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := components.ContentWidth(width)

	sections := []string{
		theme.Title.Width(cw).Render("Show me the sign for " + s.test.Sign),
		lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Align(lipgloss.Center).Render(s.test.Instructions),
	}
	if ref := s.reference(); ref != "" {
		sections = append(sections, theme.Hint.Width(cw).Align(lipgloss.Center).Render(ref))
	}
	sections = append(sections, components.Card(s.statePanel(cw-6), cw))
	if s.notice != "" {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Foreground(theme.Error).Render(s.notice))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		strings.Join(sections, "\n\n"))
}

func (s *Screen) reference() string {
	switch {
	case s.test.ReferenceVideo != "":
		return "Watch: " + s.test.ReferenceVideo
	case len(s.test.ReferenceImages) > 0:
		return "Look: " + s.test.ReferenceImages[0]
	}
	return ""
}

func (s *Screen) statePanel(w int) string {
	sess := s.session
	switch sess.State() {
	case recorder.Idle:
		if sess.PermissionDenied() {
			return theme.Incorrect.Render("The camera is turned off.") + "\n" +
				theme.Hint.Render("Press Enter to ask again, or S to skip.")
		}
		if sess.Err() != nil {
			return theme.Incorrect.Render("No camera found.") + "\n" +
				theme.Hint.Render("Connect a camera and press Enter, or S to skip.")
		}
		return theme.Body.Render("Press Enter to turn on the camera.")

	case recorder.RequestingPermission:
		return theme.Body.Render("Turning on the camera…")

	case recorder.Ready:
		return theme.Correct.Render("Camera ready!") + "\n" +
			theme.Hint.Render(fmt.Sprintf("Press Enter. You will have %d seconds.", sess.MaxSeconds()))

	case recorder.Countdown:
		return lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true).
			Render(fmt.Sprintf("Get ready… %d", sess.CountdownRemaining()))

	case recorder.Recording:
		rec := lipgloss.NewStyle().Foreground(theme.Recording).Bold(true).
			Render(fmt.Sprintf("● Recording %s / %s", clock(sess.Elapsed()), clock(sess.MaxSeconds())))
		bar := components.ProgressBar{Percent: sess.Elapsed() * 100 / max(sess.MaxSeconds(), 1), Width: w}
		return rec + "\n\n" + bar.View() + "\n" + theme.Hint.Render("Press Enter when you are done.")

	case recorder.Recorded:
		clip := sess.Clip()
		line := "Recorded!"
		if clip != nil {
			line = fmt.Sprintf("Recorded %s (%d KB).", clip.Duration.Round(time.Second), clip.Size()/1024)
		}
		return theme.Body.Render(line) + "\n" +
			theme.Hint.Render("Enter: check my sign   R: record again")

	case recorder.Evaluating:
		return s.spinner.View() + " " + theme.Body.Render("Checking your sign…")

	case recorder.Result:
		return s.resultPanel(w)
	}
	return ""
}

func (s *Screen) resultPanel(w int) string {
	out := s.session.Outcome()
	if out == nil {
		return ""
	}
	v := out.Verdict
	var b strings.Builder

	score := fmt.Sprintf("Score: %.0f%%", v.AccuracyScore)
	if out.Grade.Passed {
		b.WriteString(theme.Correct.Render("Great job! " + score))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite. " + score))
	}
	b.WriteString("\n")
	if v.Encouragement != "" {
		b.WriteString(theme.Body.Width(w).Render(v.Encouragement))
		b.WriteString("\n")
	}
	if !out.Grade.Passed && out.Grade.Hint != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Highlight).Width(w).Render("Hint: " + out.Grade.Hint))
		b.WriteString("\n")
	}
	for _, str := range v.Strengths {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Width(w).Render("✓ " + str))
		b.WriteString("\n")
	}
	for _, imp := range v.Improvements {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Width(w).Render("→ " + imp.Suggestion))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
