package evaluation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyClip is returned when an upload is attempted with no bytes.
	ErrEmptyClip = errors.New("clip is empty")
	// ErrInvalidContext is returned when a SignContext lacks required fields.
	ErrInvalidContext = errors.New("invalid sign context")
)

// UploadReason classifies an upload failure.
type UploadReason string

const (
	UploadTimeout  UploadReason = "timeout"
	UploadNetwork  UploadReason = "network"
	UploadRejected UploadReason = "rejected"
)

// UploadError is returned when the hosting service could not store a clip.
type UploadError struct {
	Reason UploadReason
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%s): %v", e.Reason, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// EvaluationReason classifies an evaluation failure.
type EvaluationReason string

const (
	EvaluationTimeout   EvaluationReason = "timeout"
	EvaluationNetwork   EvaluationReason = "network"
	EvaluationMalformed EvaluationReason = "malformed"
	// EvaluationInvalidContext means the test itself lacks a sign or
	// instructions; resubmitting cannot help.
	EvaluationInvalidContext EvaluationReason = "invalid_context"
)

// EvaluationError is returned when no usable verdict could be obtained.
type EvaluationError struct {
	Reason EvaluationReason
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed (%s): %v", e.Reason, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Stage names the pipeline step that failed.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageEvaluate Stage = "evaluate"
)

// SubmissionError is the single error Submit reports. Err is the underlying
// *UploadError or *EvaluationError.
type SubmissionError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed at %s (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// asUploadError converts any upload failure into *UploadError. ctx is the
// context the call ran under; its deadline decides timeout vs network.
func asUploadError(ctx context.Context, err error) *UploadError {
	if isTimeout(ctx, err) {
		return &UploadError{Reason: UploadTimeout, Err: err}
	}
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue
	}
	return &UploadError{Reason: UploadNetwork, Err: err}
}

func asEvaluationError(ctx context.Context, err error) *EvaluationError {
	if isTimeout(ctx, err) {
		return &EvaluationError{Reason: EvaluationTimeout, Err: err}
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee
	}
	return &EvaluationError{Reason: EvaluationNetwork, Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
