package recorder

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/evaluation"
	"github.com/abhisek/signiz/internal/grading"
	"github.com/abhisek/signiz/internal/llm"
	"github.com/abhisek/signiz/internal/store"
)

// PipelineSubmitter sends clips through an evaluation pipeline and gates
// the verdict. Every attempt is recorded as a submission event when an
// event repo is set.
type PipelineSubmitter struct {
	pipeline  *evaluation.Pipeline
	threshold float64
	pick      grading.HintPicker
	hints     []string
	events    store.EventRepo
	logger    *zap.Logger
}

// NewPipelineSubmitter creates a submitter. events and logger may be nil.
func NewPipelineSubmitter(p *evaluation.Pipeline, threshold float64, pick grading.HintPicker, events store.EventRepo, logger *zap.Logger) *PipelineSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineSubmitter{
		pipeline:  p,
		threshold: threshold,
		pick:      pick,
		events:    events,
		logger:    logger,
	}
}

// WithHints returns a copy of the submitter that picks failure hints from
// hints.
func (s *PipelineSubmitter) WithHints(hints []string) *PipelineSubmitter {
	cp := *s
	cp.hints = append([]string(nil), hints...)
	return &cp
}

func (s *PipelineSubmitter) Submit(ctx context.Context, clip *Clip, sc evaluation.SignContext) (*Outcome, error) {
	if clip == nil {
		return nil, &evaluation.SubmissionError{
			Stage:  evaluation.StageUpload,
			Reason: string(evaluation.UploadRejected),
			Err:    evaluation.ErrEmptyClip,
		}
	}

	attemptID := uuid.NewString()
	ctx = llm.WithAttempt(ctx, attemptID)

	ev := store.SubmissionEventData{
		AttemptID: attemptID,
		Category:  sc.Category,
		LessonID:  sc.LessonID,
		Sign:      sc.SignToPerform,
	}

	sub, err := s.pipeline.Submit(ctx, clip.Bytes(), clip.MIMEType, sc)
	if err != nil {
		var se *evaluation.SubmissionError
		if errors.As(err, &se) {
			ev.Stage = string(se.Stage)
			ev.Reason = se.Reason
		}
		s.record(ctx, ev)
		return nil, err
	}

	hints := s.hints
	if len(hints) == 0 {
		hints = sc.Hints
	}
	outcome := grading.Gate(*sub.Verdict, hints, s.threshold, s.pick)

	ev.Score = outcome.Score
	ev.Passed = outcome.Passed
	ev.MediaURL = sub.Media.URL
	ev.LatencyMs = sub.Latency.Milliseconds()
	s.record(ctx, ev)

	return &Outcome{
		AttemptID: attemptID,
		Media:     sub.Media,
		Verdict:   *sub.Verdict,
		Grade:     outcome,
	}, nil
}

func (s *PipelineSubmitter) record(ctx context.Context, ev store.SubmissionEventData) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendSubmission(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("failed to record submission", zap.String("attempt", ev.AttemptID), zap.Error(err))
	}
}
