package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/signiz/internal/ui/theme"
)

// MascotMood selects which hand to draw.
type MascotMood int

const (
	MascotWave  MascotMood = iota // nothing finished yet
	MascotCheer                   // at least one category done
	MascotStar                    // every category done
)

const mascotWave = ` ╭╮╭╮╭╮
╭┤││││├╮
│ ◕  ◕ │ ~
│  ‿   │
╰──────╯`

const mascotCheer = ` ╭╮╭╮╭╮
╭┤││││├╮
│ ^  ^ │
│  ▽   │
╰──────╯`

const mascotStar = ` ╭╮╭╮╭╮
╭┤││││├╮
│ ★  ★ │ ★
│  ▽   │
╰──────╯`

// RenderMascot draws the hand for mood.
func RenderMascot(mood MascotMood) string {
	art, fg := mascotWave, theme.Secondary
	switch mood {
	case MascotCheer:
		art, fg = mascotCheer, theme.Success
	case MascotStar:
		art, fg = mascotStar, theme.Highlight
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
