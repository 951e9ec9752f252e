package evaluation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds each remote call. The hosting side enforces a hard
// cap of five minutes; the client gives up earlier.
const DefaultTimeout = 240 * time.Second

// Submission is the result of a successful Submit.
type Submission struct {
	Media   MediaReference
	Verdict *Verdict
	Latency time.Duration
}

// Pipeline runs upload then evaluate. It never retries, caches or
// deduplicates; each call is a fresh attempt.
type Pipeline struct {
	uploader        Uploader
	evaluator       Evaluator
	uploadTimeout   time.Duration
	evaluateTimeout time.Duration
	logger          *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeouts overrides the per-stage timeouts. Zero keeps the default.
func WithTimeouts(upload, evaluate time.Duration) Option {
	return func(p *Pipeline) {
		if upload > 0 {
			p.uploadTimeout = upload
		}
		if evaluate > 0 {
			p.evaluateTimeout = evaluate
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a Pipeline over the given backends.
func NewPipeline(u Uploader, e Evaluator, opts ...Option) *Pipeline {
	p := &Pipeline{
		uploader:        u,
		evaluator:       e,
		uploadTimeout:   DefaultTimeout,
		evaluateTimeout: DefaultTimeout,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Upload stores the clip. Every failure is an *UploadError.
func (p *Pipeline) Upload(ctx context.Context, clip []byte, mimeType string) (MediaReference, error) {
	if len(clip) == 0 {
		return MediaReference{}, &UploadError{Reason: UploadRejected, Err: ErrEmptyClip}
	}

	ctx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()

	ref, err := p.uploader.Upload(ctx, clip, mimeType)
	if err != nil {
		return MediaReference{}, asUploadError(ctx, err)
	}
	if ref.MIMEType == "" {
		ref.MIMEType = mimeType
	}
	return ref, nil
}

// Evaluate grades an uploaded clip. Every failure is an *EvaluationError;
// a verdict outside the schema counts as malformed.
func (p *Pipeline) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	if err := sc.Validate(); err != nil {
		return nil, &EvaluationError{Reason: EvaluationInvalidContext, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.evaluateTimeout)
	defer cancel()

	v, err := p.evaluator.Evaluate(ctx, ref, sc)
	if err != nil {
		return nil, asEvaluationError(ctx, err)
	}
	if v == nil {
		return nil, &EvaluationError{Reason: EvaluationMalformed, Err: errors.New("empty verdict")}
	}
	if err := v.Validate(); err != nil {
		return nil, &EvaluationError{Reason: EvaluationMalformed, Err: err}
	}
	return v, nil
}

// Submit uploads the clip and, only if that succeeds, evaluates it. A
// failure at either stage is reported as a *SubmissionError.
func (p *Pipeline) Submit(ctx context.Context, clip []byte, mimeType string, sc SignContext) (*Submission, error) {
	if err := sc.Validate(); err != nil {
		return nil, &SubmissionError{
			Stage:  StageEvaluate,
			Reason: string(EvaluationInvalidContext),
			Err:    &EvaluationError{Reason: EvaluationInvalidContext, Err: err},
		}
	}

	start := time.Now()
	log := p.logger.With(zap.String("sign", sc.SignToPerform), zap.Int("clip_bytes", len(clip)))

	ref, err := p.Upload(ctx, clip, mimeType)
	if err != nil {
		var ue *UploadError
		errors.As(err, &ue)
		log.Warn("clip upload failed", zap.String("reason", string(ue.Reason)), zap.Error(ue.Err))
		return nil, &SubmissionError{Stage: StageUpload, Reason: string(ue.Reason), Err: err}
	}
	log.Debug("clip uploaded", zap.String("media_id", ref.ID), zap.String("url", ref.URL))

	verdict, err := p.Evaluate(ctx, ref, sc)
	if err != nil {
		var ee *EvaluationError
		errors.As(err, &ee)
		log.Warn("evaluation failed", zap.String("reason", string(ee.Reason)), zap.Error(ee.Err))
		return nil, &SubmissionError{Stage: StageEvaluate, Reason: string(ee.Reason), Err: err}
	}

	latency := time.Since(start)
	log.Info("sign evaluated",
		zap.Float64("score", verdict.AccuracyScore),
		zap.String("hand_shape", string(verdict.HandShapeDetected)),
		zap.Duration("latency", latency))

	return &Submission{Media: ref, Verdict: verdict, Latency: latency}, nil
}
