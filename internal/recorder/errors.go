package recorder

import (
	"errors"
	"fmt"

	"github.com/abhisek/signiz/internal/evaluation"
)

var (
	// ErrPermissionDenied means the learner or OS refused camera access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceUnavailable means no usable capture device was found or it
	// failed while in use.
	ErrDeviceUnavailable = errors.New("camera unavailable")
	// ErrBusy is returned by a second submit while one is in flight.
	ErrBusy = errors.New("submission already in progress")
	// ErrNotPassed is returned by Pass when the result did not pass.
	ErrNotPassed = errors.New("attempt did not pass")
)

// TransitionError reports an operation that is not allowed in the current
// state.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// UserMessage turns any recorder error into a plain-language sentence with
// a next step.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access was denied. Allow camera access and try again, or skip this test."
	case errors.Is(err, ErrDeviceUnavailable):
		return "No camera is available. Connect a camera and try again, or skip this test."
	case errors.Is(err, ErrBusy):
		return "Your sign is already being checked. Please wait."
	case errors.Is(err, evaluation.ErrEmptyClip):
		return "The recording was empty. Record your sign again."
	}

	var se *evaluation.SubmissionError
	if errors.As(err, &se) {
		switch {
		case se.Stage == evaluation.StageUpload && se.Reason == string(evaluation.UploadTimeout):
			return "Uploading your video took too long. Submit again, or record a new attempt."
		case se.Stage == evaluation.StageUpload && se.Reason == string(evaluation.UploadRejected):
			return "The video service did not accept the recording. Record a new attempt and submit again."
		case se.Stage == evaluation.StageUpload:
			return "Could not reach the video service. Check your connection and submit again."
		case se.Reason == string(evaluation.EvaluationTimeout):
			return "Checking your sign took too long. Submit again."
		case se.Reason == string(evaluation.EvaluationInvalidContext):
			return "This test is missing its sign or instructions. Skip it for now."
		case se.Reason == string(evaluation.EvaluationMalformed):
			return "The sign checker sent back something unexpected. Submit again."
		default:
			return "Could not reach the sign checker. Submit again in a moment."
		}
	}

	var te *TransitionError
	if errors.As(err, &te) {
		return "That is not possible right now."
	}
	return "Something went wrong. Try again, or skip this test."
}
