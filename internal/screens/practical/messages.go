package practical

import "github.com/abhisek/signiz/internal/recorder"

// cameraOpenedMsg reports that opening the device finished. A granted
// stream waits on the screen, not in the message.
type cameraOpenedMsg struct {
	err error
}

// tickMsg is the one second countdown and recording timer.
type tickMsg struct {
	tick recorder.Tick
}

// submittedMsg carries the graded outcome of an attempt.
type submittedMsg struct {
	out *recorder.Outcome
	err error
}

// PassedMsg is delivered to the screen below once the learner passes.
type PassedMsg struct {
	LessonID int
	Outcome  recorder.Outcome
}

// SkippedMsg is delivered to the screen below when the test is skipped.
type SkippedMsg struct {
	LessonID int
}
