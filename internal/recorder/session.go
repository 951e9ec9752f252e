package recorder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/announce"
	"github.com/abhisek/signiz/internal/evaluation"
	"github.com/abhisek/signiz/internal/grading"
)

// Outcome is what a finished submission produced.
type Outcome struct {
	AttemptID string
	Media     evaluation.MediaReference
	Verdict   evaluation.Verdict
	Grade     grading.Outcome
}

// Submitter grades a clip. Errors are *evaluation.SubmissionError.
type Submitter interface {
	Submit(ctx context.Context, clip *Clip, sc evaluation.SignContext) (*Outcome, error)
}

// Hooks are called when the session ends by learner choice.
type Hooks struct {
	OnPass func(Outcome)
	OnSkip func()
}

// Tick is a one-second timer event. Ticks carry the generation they were
// scheduled in; any state change that leaves Countdown or Recording bumps
// the generation so older ticks are ignored.
type Tick struct {
	Gen uint64
}

// Session is the recorder state machine. It is not safe for concurrent
// use: every method must be called from the same event loop.
type Session struct {
	cfg       Config
	camera    Camera
	submitter Submitter
	announcer announce.Announcer
	hooks     Hooks
	logger    *zap.Logger
	now       func() time.Time

	state            State
	stream           Stream
	clip             *Clip
	elapsed          int
	countdown        int
	permissionDenied bool
	lastErr          error
	outcome          *Outcome
	gen              uint64
}

// Option configures a Session.
type Option func(*Session)

func WithAnnouncer(a announce.Announcer) Option {
	return func(s *Session) {
		if a != nil {
			s.announcer = a
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for clip timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session in Idle. No device is touched until RequestCamera.
func New(cfg Config, camera Camera, submitter Submitter, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		camera:    camera,
		submitter: submitter,
		announcer: announce.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
		state:     Idle,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) State() State            { return s.state }
func (s *Session) Config() Config          { return s.cfg }
func (s *Session) Elapsed() int            { return s.elapsed }
func (s *Session) CountdownRemaining() int { return s.countdown }
func (s *Session) PermissionDenied() bool  { return s.permissionDenied }
func (s *Session) Err() error              { return s.lastErr }
func (s *Session) Clip() *Clip             { return s.clip }
func (s *Session) StreamOpen() bool        { return s.stream != nil }
func (s *Session) MaxSeconds() int         { return s.cfg.maxSeconds() }
func (s *Session) Outcome() *Outcome       { return s.outcome }

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}
	s.logger.Debug("recorder transition", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
}

// RequestCamera acquires the device synchronously.
func (s *Session) RequestCamera(ctx context.Context) error {
	c, err := s.BeginCameraRequest()
	if err != nil {
		return err
	}
	stream, openErr := s.camera.Open(ctx, c)
	return s.CompleteCameraRequest(stream, openErr)
}

// BeginCameraRequest moves Idle to RequestingPermission and returns the
// constraints to open the device with.
func (s *Session) BeginCameraRequest() (Constraints, error) {
	if s.state != Idle {
		return Constraints{}, &TransitionError{Op: "request camera", State: s.state}
	}
	s.permissionDenied = false
	s.lastErr = nil
	s.setState(RequestingPermission)
	s.announcer.Announce("Asking for camera access.")
	return Constraints{Resolution: s.cfg.Resolution, Facing: s.cfg.Facing, Device: s.cfg.Device}, nil
}

// CompleteCameraRequest applies the result of opening the device. A stream
// that arrives after the session moved on is released immediately.
func (s *Session) CompleteCameraRequest(stream Stream, err error) error {
	if s.state != RequestingPermission {
		if stream != nil {
			_ = stream.Close()
		}
		return nil
	}

	if err == nil && stream == nil {
		err = ErrDeviceUnavailable
	}
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		if errors.Is(err, ErrPermissionDenied) {
			s.permissionDenied = true
			s.announcer.Announce("Camera access was denied.")
		} else {
			if !errors.Is(err, ErrDeviceUnavailable) {
				err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
			}
			s.announcer.Announce("No camera was found.")
		}
		s.lastErr = err
		s.setState(Idle)
		s.logger.Warn("camera request failed", zap.Error(err))
		return err
	}

	s.stream = stream
	s.setState(Ready)
	s.announcer.Announce("Camera ready. Start when you are ready.")
	return nil
}

// StartCountdown moves Ready to Countdown and returns the first tick to
// schedule one second from now.
func (s *Session) StartCountdown() (Tick, error) {
	if s.state != Ready {
		return Tick{}, &TransitionError{Op: "start countdown", State: s.state}
	}
	s.countdown = s.cfg.countdownStart()
	s.lastErr = nil
	s.gen++
	s.setState(Countdown)
	s.announcer.Announce(strconv.Itoa(s.countdown))
	return Tick{Gen: s.gen}, nil
}

// HandleTick advances the countdown or the recording timer. It returns the
// next tick and true when another one should be scheduled. Stale ticks are
// ignored.
func (s *Session) HandleTick(t Tick) (Tick, bool) {
	if t.Gen != s.gen {
		return Tick{}, false
	}

	switch s.state {
	case Countdown:
		s.countdown--
		if s.countdown > 0 {
			s.announcer.Announce(strconv.Itoa(s.countdown))
			return Tick{Gen: s.gen}, true
		}
		return s.beginRecording()

	case Recording:
		s.elapsed++
		if s.elapsed >= s.cfg.maxSeconds() {
			s.elapsed = s.cfg.maxSeconds()
			s.finishRecording()
			return Tick{}, false
		}
		return Tick{Gen: s.gen}, true
	}
	return Tick{}, false
}

func (s *Session) beginRecording() (Tick, bool) {
	s.gen++
	if err := s.stream.Start(); err != nil {
		s.failCapture(err)
		return Tick{}, false
	}
	s.elapsed = 0
	s.setState(Recording)
	s.announcer.Announce("Recording. Show your sign now.")
	return Tick{Gen: s.gen}, true
}

// Stop ends a recording early.
func (s *Session) Stop() error {
	if s.state != Recording {
		return &TransitionError{Op: "stop", State: s.state}
	}
	s.finishRecording()
	return s.lastErr
}

func (s *Session) finishRecording() {
	s.gen++
	data, err := s.stream.Stop()
	if err == nil && len(data) == 0 {
		err = evaluation.ErrEmptyClip
	}
	if err != nil {
		s.failCapture(err)
		return
	}
	s.clip = NewClip(data, s.stream.MIMEType(), time.Duration(s.elapsed)*time.Second, s.now())
	s.setState(Recorded)
	s.announcer.Announce("Recording finished. Submit it or try again.")
}

// failCapture handles a device failure during capture: the attempt is
// dropped and the learner can start over from Ready.
func (s *Session) failCapture(err error) {
	if !errors.Is(err, ErrDeviceUnavailable) && !errors.Is(err, evaluation.ErrEmptyClip) {
		err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.lastErr = err
	s.clip = nil
	s.elapsed = 0
	s.setState(Ready)
	s.logger.Warn("capture failed", zap.Error(err))
}

// Submit grades the recorded clip synchronously.
func (s *Session) Submit(ctx context.Context, sc evaluation.SignContext) error {
	clip, err := s.BeginSubmit()
	if err != nil {
		return err
	}
	out, subErr := s.submitter.Submit(ctx, clip, sc)
	return s.CompleteSubmit(out, subErr)
}

// BeginSubmit moves Recorded to Evaluating and returns the clip to grade.
// While a submission is outstanding it returns ErrBusy.
func (s *Session) BeginSubmit() (*Clip, error) {
	switch s.state {
	case Evaluating:
		return nil, ErrBusy
	case Recorded:
	default:
		return nil, &TransitionError{Op: "submit", State: s.state}
	}
	s.lastErr = nil
	s.setState(Evaluating)
	s.announcer.Announce("Checking your sign.")
	return s.clip, nil
}

// CompleteSubmit applies a submission result. On error the session goes
// back to Recorded with the clip kept so the learner can submit again.
// Results that arrive after the session moved on are dropped.
func (s *Session) CompleteSubmit(out *Outcome, err error) error {
	if s.state != Evaluating {
		return nil
	}
	if err == nil && out == nil {
		err = &evaluation.SubmissionError{
			Stage:  evaluation.StageEvaluate,
			Reason: string(evaluation.EvaluationMalformed),
			Err:    errors.New("no outcome"),
		}
	}
	if err != nil {
		s.lastErr = err
		s.setState(Recorded)
		s.announcer.Announce(UserMessage(err))
		return err
	}

	s.outcome = out
	s.setState(Result)
	if out.Grade.Passed {
		s.announcer.Announce("Great job! You signed it correctly.")
	} else if out.Grade.Hint != "" {
		s.announcer.Announce("Not quite. Hint: " + out.Grade.Hint)
	} else {
		s.announcer.Announce("Not quite. Let's try again.")
	}
	return nil
}

// Retry discards the clip and returns to Ready.
func (s *Session) Retry() error {
	if s.state != Recorded && s.state != Result {
		return &TransitionError{Op: "retry", State: s.state}
	}
	s.clip = nil
	s.outcome = nil
	s.elapsed = 0
	s.lastErr = nil
	s.setState(Ready)
	s.announcer.Announce("Camera ready. Start when you are ready.")
	return nil
}

// Pass ends the session after a passing result and fires OnPass.
func (s *Session) Pass() error {
	if s.state != Result {
		return &TransitionError{Op: "pass", State: s.state}
	}
	if s.outcome == nil || !s.outcome.Grade.Passed {
		return ErrNotPassed
	}
	out := *s.outcome
	s.teardown()
	if s.hooks.OnPass != nil {
		s.hooks.OnPass(out)
	}
	return nil
}

// Skip ends the session from any state and fires OnSkip. Skipping a closed
// session does nothing.
func (s *Session) Skip() {
	if s.state == Closed {
		return
	}
	s.teardown()
	if s.hooks.OnSkip != nil {
		s.hooks.OnSkip()
	}
}

// Close ends the session without firing hooks. It is idempotent.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.teardown()
}

// teardown is the single exit path: it invalidates pending ticks and
// releases the device.
func (s *Session) teardown() {
	s.gen++
	s.releaseStream()
	s.clip = nil
	s.countdown = 0
	s.setState(Closed)
}

func (s *Session) releaseStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.logger.Warn("camera release failed", zap.Error(err))
	}
	s.stream = nil
}
