// Package recorder drives one practical-test attempt: camera access, a
// countdown, a bounded recording and submission of the clip for grading.
package recorder

import (
	"time"
)

// State is the recorder's current step. Exactly one is active at a time.
type State int

const (
	Idle State = iota
	RequestingPermission
	Ready
	Countdown
	Recording
	Recorded
	Evaluating
	Result
	// Closed is terminal: the session has been passed, skipped or unmounted.
	Closed
)

var stateNames = [...]string{
	Idle:                 "Idle",
	RequestingPermission: "RequestingPermission",
	Ready:                "Ready",
	Countdown:            "Countdown",
	Recording:            "Recording",
	Recorded:             "Recorded",
	Evaluating:           "Evaluating",
	Result:               "Result",
	Closed:               "Closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// HoldsClip reports whether a session in this state owns a clip.
func (s State) HoldsClip() bool {
	return s == Recorded || s == Evaluating || s == Result
}

// Facing selects which camera to use.
type Facing int

const (
	FacingFront Facing = iota
	FacingBack
)

// Resolution is a capture size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Config holds the product-tuning constants of a session.
type Config struct {
	// CountdownStart is the first number shown before recording starts.
	CountdownStart int
	// MaxDuration is when recording stops on its own. Whole seconds; a
	// fraction is dropped so a recording never runs past it.
	MaxDuration time.Duration
	Resolution  Resolution
	Facing      Facing
	// Device optionally names a specific capture device.
	Device string
}

// DefaultConfig returns a 3 second countdown and a 15 second limit at
// 640x480 from the front camera.
func DefaultConfig() Config {
	return Config{
		CountdownStart: 3,
		MaxDuration:    15 * time.Second,
		Resolution:     Resolution{Width: 640, Height: 480},
		Facing:         FacingFront,
	}
}

func (c Config) maxSeconds() int {
	n := int(c.MaxDuration / time.Second)
	if n < 1 {
		return 1
	}
	return n
}

func (c Config) countdownStart() int {
	if c.CountdownStart < 1 {
		return 1
	}
	return c.CountdownStart
}

// Clip is one recorded attempt. The bytes are never modified after the
// clip is assembled.
type Clip struct {
	data       []byte
	MIMEType   string
	Duration   time.Duration
	RecordedAt time.Time
}

// NewClip copies data into a new clip.
func NewClip(data []byte, mimeType string, duration time.Duration, at time.Time) *Clip {
	return &Clip{data: append([]byte(nil), data...), MIMEType: mimeType, Duration: duration, RecordedAt: at}
}

// Bytes returns a copy of the clip contents.
func (c *Clip) Bytes() []byte {
	return append([]byte(nil), c.data...)
}

// Size is the clip length in bytes.
func (c *Clip) Size() int {
	return len(c.data)
}
