// Package practical is the camera test screen: it shows the sign to
// perform and drives a recorder session with Bubble Tea commands.
package practical

import (
	"context"
	"errors"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/announce"
	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/evaluation"
	"github.com/abhisek/signiz/internal/recorder"
	"github.com/abhisek/signiz/internal/router"
	"github.com/abhisek/signiz/internal/screen"
	"github.com/abhisek/signiz/internal/ui/layout"
)

// Deps are the collaborators every practical test shares.
type Deps struct {
	Config    recorder.Config
	Camera    recorder.Camera
	Submitter recorder.Submitter
	Announcer announce.Announcer
	Logger    *zap.Logger
}

// Screen runs one practical test. Leaving the screen by any route closes
// the session and releases the camera.
type Screen struct {
	test    content.Practical
	sc      evaluation.SignContext
	deps    Deps
	session *recorder.Session
	spinner spinner.Model

	ctx    context.Context
	cancel context.CancelFunc

	// pending holds a granted stream until Update hands it to the session.
	// Once closed is set, late grants are released by the opener.
	mu      sync.Mutex
	pending recorder.Stream
	closed  bool

	// finished is set by the session hooks and turned into a command.
	finished tea.Msg
	notice   string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Closer          = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

func New(test content.Practical, deps Deps) *Screen {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Screen{
		test:    test,
		sc:      test.SignContext(),
		deps:    deps,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		ctx:     ctx,
		cancel:  cancel,
	}

	opts := []recorder.Option{
		recorder.WithLogger(deps.Logger.With(zap.String("sign", test.Sign))),
		recorder.WithHooks(recorder.Hooks{
			OnPass: func(out recorder.Outcome) {
				s.finished = PassedMsg{LessonID: test.LessonID, Outcome: out}
			},
			OnSkip: func() {
				s.finished = SkippedMsg{LessonID: test.LessonID}
			},
		}),
	}
	if deps.Announcer != nil {
		opts = append(opts, recorder.WithAnnouncer(deps.Announcer))
	}
	s.session = recorder.New(deps.Config, deps.Camera, deps.Submitter, opts...)
	return s
}

// Session exposes the recorder for tests.
func (s *Screen) Session() *recorder.Session { return s.session }

// Init asks for the camera right away.
func (s *Screen) Init() tea.Cmd {
	return s.requestCamera()
}

func (s *Screen) Title() string {
	return "Sign: " + s.test.Sign
}

func (s *Screen) Status() string {
	switch s.session.State() {
	case recorder.Recording:
		return "● REC"
	case recorder.Evaluating:
		return "checking…"
	}
	return ""
}

func (s *Screen) Close() {
	s.mu.Lock()
	s.closed = true
	stream := s.pending
	s.pending = nil
	s.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}

	s.cancel()
	s.session.Close()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{}
	switch s.session.State() {
	case recorder.Idle:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Turn on camera"})
	case recorder.Ready:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Start"})
	case recorder.Recording:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Stop"})
	case recorder.Recorded:
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Check my sign"},
			layout.KeyHint{Key: "R", Description: "Record again"})
	case recorder.Result:
		if s.passed() {
			hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Continue"})
		} else {
			hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Try again"})
		}
	}
	return append(hints,
		layout.KeyHint{Key: "S", Description: "Skip"},
		layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cameraOpenedMsg:
		if err := s.session.CompleteCameraRequest(s.takePending(), msg.err); err != nil {
			s.notice = recorder.UserMessage(err)
		}
		return s, nil

	case tickMsg:
		next, ok := s.session.HandleTick(msg.tick)
		if err := s.session.Err(); err != nil && s.session.State() == recorder.Ready {
			s.notice = recorder.UserMessage(err)
		}
		if ok {
			return s, scheduleTick(next)
		}
		return s, nil

	case submittedMsg:
		if err := s.session.CompleteSubmit(msg.out, msg.err); err != nil {
			s.notice = recorder.UserMessage(err)
		}
		return s, nil

	case spinner.TickMsg:
		if s.session.State() != recorder.Evaluating {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		cmd := s.handleKey(msg.String())
		if done := s.finish(); done != nil {
			return s, done
		}
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(key string) tea.Cmd {
	switch key {
	case "s", "S":
		s.session.Skip()
		return nil
	case "r", "R":
		if err := s.session.Retry(); err == nil {
			s.notice = ""
		}
		return nil
	case "enter", "space":
	default:
		return nil
	}

	s.notice = ""
	switch s.session.State() {
	case recorder.Idle:
		return s.requestCamera()
	case recorder.Ready:
		tick, err := s.session.StartCountdown()
		if err != nil {
			return nil
		}
		return scheduleTick(tick)
	case recorder.Recording:
		if err := s.session.Stop(); err != nil {
			s.notice = recorder.UserMessage(err)
		}
	case recorder.Recorded:
		return s.submit()
	case recorder.Result:
		if s.passed() {
			if err := s.session.Pass(); err != nil {
				s.notice = recorder.UserMessage(err)
			}
			return nil
		}
		_ = s.session.Retry()
	}
	return nil
}

// finish leaves the screen once a hook fired, then hands the result to the
// screen below.
func (s *Screen) finish() tea.Cmd {
	if s.finished == nil {
		return nil
	}
	done := s.finished
	s.finished = nil
	return func() tea.Msg { return router.PopScreenMsg{Result: done} }
}

func (s *Screen) requestCamera() tea.Cmd {
	c, err := s.session.BeginCameraRequest()
	if err != nil {
		return nil
	}
	ctx, cam := s.ctx, s.deps.Camera
	return func() tea.Msg {
		stream, err := cam.Open(ctx, c)
		if !s.park(stream) {
			return nil
		}
		return cameraOpenedMsg{err: err}
	}
}

// park stores a granted stream for Update. It reports false, after
// releasing the stream, when the screen has already closed.
func (s *Screen) park(stream recorder.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if stream != nil {
			_ = stream.Close()
		}
		return false
	}
	s.pending = stream
	return true
}

func (s *Screen) takePending() recorder.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.pending
	s.pending = nil
	return stream
}

func (s *Screen) submit() tea.Cmd {
	clip, err := s.session.BeginSubmit()
	if err != nil {
		if !errors.Is(err, recorder.ErrBusy) {
			s.notice = recorder.UserMessage(err)
		}
		return nil
	}
	ctx, sub, sc := s.ctx, s.deps.Submitter, s.sc
	return tea.Batch(s.spinner.Tick, func() tea.Msg {
		out, err := sub.Submit(ctx, clip, sc)
		return submittedMsg{out: out, err: err}
	})
}

func (s *Screen) passed() bool {
	out := s.session.Outcome()
	return out != nil && out.Grade.Passed
}

// tickEvery is the recorder clock period.
var tickEvery = time.Second

func scheduleTick(t recorder.Tick) tea.Cmd {
	return tea.Tick(tickEvery, func(time.Time) tea.Msg {
		return tickMsg{tick: t}
	})
}
