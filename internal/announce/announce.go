// Package announce speaks short status messages aloud for learners who
// cannot read the screen yet.
package announce

import (
	"context"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Announcer delivers a message without blocking the caller.
type Announcer interface {
	Announce(text string)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Announce(string) {}

// Func adapts a function to Announcer.
type Func func(text string)

func (f Func) Announce(text string) { f(text) }

// Recorder keeps announced messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Announce(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
}

// Messages returns a copy of everything announced so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Rate and pitch relative to the engine defaults; slower and a little
// higher is easier for young listeners.
const (
	speechRate  = 0.85
	speechPitch = 1.1
)

// Speaker speaks through an external text-to-speech program (espeak-ng,
// espeak or macOS say). A new message interrupts the one being spoken.
type Speaker struct {
	command string
	args    func(text string) []string
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSpeaker finds a speech program. command overrides the lookup. It
// returns ok=false when nothing usable is installed.
func NewSpeaker(command string, logger *zap.Logger) (*Speaker, bool) {
	if logger == nil {
		logger = zap.NewNop()
	}

	candidates := []string{"espeak-ng", "espeak"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"say"}
	}
	if command != "" {
		candidates = []string{command}
	}

	for _, c := range candidates {
		path, err := exec.LookPath(c)
		if err != nil {
			continue
		}
		return &Speaker{command: path, args: argsFor(c), logger: logger}, true
	}
	return nil, false
}

func argsFor(command string) func(string) []string {
	if command == "say" {
		// say defaults to about 175 words per minute.
		rate := strconv.Itoa(int(math.Round(175 * speechRate)))
		return func(text string) []string { return []string{"-r", rate, text} }
	}
	// espeak: -s words per minute (default 175), -p pitch 0-99 (default 50).
	rate := strconv.Itoa(int(math.Round(175 * speechRate)))
	pitch := strconv.Itoa(int(math.Round(50 * speechPitch)))
	return func(text string) []string { return []string{"-s", rate, "-p", pitch, "-v", "en-us", text} }
}

func (s *Speaker) Announce(text string) {
	if text == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.command, s.args(text)...)
	if err := cmd.Start(); err != nil {
		s.logger.Debug("speech failed to start", zap.Error(err))
		cancel()
		return
	}
	go func() {
		_ = cmd.Wait()
		cancel()
	}()
}

// Stop interrupts the current message, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
