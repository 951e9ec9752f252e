package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/signiz/internal/ui/layout"
)

// Screen is one page of the app.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens that hold resources, such as an open
// camera. The router calls Close when the screen leaves the stack.
type Closer interface {
	Close()
}

// StatusProvider screens supply the right side of the header.
type StatusProvider interface {
	Status() string
}

// EscCapturer screens handle Esc themselves while CapturesEsc is true,
// e.g. to cancel a dialog instead of leaving the screen.
type EscCapturer interface {
	CapturesEsc() bool
}

// RefreshMsg is sent to the screen that becomes active after a pop so it
// can reload state that may have changed underneath it.
type RefreshMsg struct{}
