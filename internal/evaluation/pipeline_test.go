package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	ref   MediaReference
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, clip []byte, mimeType string) (MediaReference, error) {
	f.calls++
	return f.ref, f.err
}

type fakeEvaluator struct {
	verdict *Verdict
	err     error
	block   bool
	calls   int
	gotRef  MediaReference
	gotCtx  SignContext
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	f.calls++
	f.gotRef, f.gotCtx = ref, sc
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.verdict, f.err
}

func familyContext() SignContext {
	return SignContext{
		SignToPerform: "Family",
		Instructions:  "Sign 'Family' using both hands",
		Hints:         []string{"Make sure your hand is clearly visible"},
	}
}

func goodVerdict() *Verdict {
	return &Verdict{
		AccuracyScore:           82,
		HandShapeDetected:       HandOpen,
		MovementPatternDetected: MoveCurved,
		Strengths:               []string{"clear handshape"},
		Improvements:            []Improvement{},
		CriticalFeedback:        "none",
		Encouragement:           "great job",
	}
}

func TestSubmitHappyPath(t *testing.T) {
	up := &fakeUploader{ref: MediaReference{URL: "https://x/y.mp4", ID: "abc"}}
	ev := &fakeEvaluator{verdict: goodVerdict()}
	p := NewPipeline(up, ev)

	sub, err := p.Submit(context.Background(), []byte("clip"), "video/mp4", familyContext())
	require.NoError(t, err)
	assert.Equal(t, "abc", sub.Media.ID)
	assert.Equal(t, "video/mp4", sub.Media.MIMEType)
	assert.Equal(t, 82.0, sub.Verdict.AccuracyScore)
	assert.Equal(t, "https://x/y.mp4", ev.gotRef.URL)
	assert.Equal(t, "Family", ev.gotCtx.SignToPerform)
}

func TestSubmitUploadFailureSkipsEvaluate(t *testing.T) {
	up := &fakeUploader{err: errors.New("connection reset")}
	ev := &fakeEvaluator{verdict: goodVerdict()}
	p := NewPipeline(up, ev)

	_, err := p.Submit(context.Background(), []byte("clip"), "video/webm", familyContext())
	require.Error(t, err)

	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageUpload, se.Stage)
	assert.Equal(t, string(UploadNetwork), se.Reason)
	assert.Equal(t, 0, ev.calls, "evaluate must not run after a failed upload")

	var ue *UploadError
	assert.True(t, errors.As(err, &ue))
}

func TestSubmitUploadRejectionKeepsReason(t *testing.T) {
	up := &fakeUploader{err: &UploadError{Reason: UploadRejected, Err: errors.New("too large")}}
	p := NewPipeline(up, &fakeEvaluator{})

	_, err := p.Submit(context.Background(), []byte("clip"), "video/webm", familyContext())
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "rejected", se.Reason)
}

func TestSubmitEmptyClip(t *testing.T) {
	up := &fakeUploader{}
	p := NewPipeline(up, &fakeEvaluator{})

	_, err := p.Submit(context.Background(), nil, "video/webm", familyContext())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyClip))
	assert.Equal(t, 0, up.calls)
}

func TestSubmitInvalidContext(t *testing.T) {
	tests := []struct {
		name string
		sc   SignContext
	}{
		{"missing sign", SignContext{Instructions: "do it"}},
		{"blank instructions", SignContext{SignToPerform: "Boy", Instructions: "   "}},
		{"bad reference image", SignContext{SignToPerform: "Boy", Instructions: "do it", ReferenceImages: []string{"not a url"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			_, err := NewPipeline(up, &fakeEvaluator{}).Submit(context.Background(), []byte("x"), "video/webm", tt.sc)
			assert.True(t, errors.Is(err, ErrInvalidContext), "got %v", err)
			assert.Equal(t, 0, up.calls)

			var se *SubmissionError
			require.True(t, errors.As(err, &se), "got %T", err)
			assert.Equal(t, StageEvaluate, se.Stage)
			assert.Equal(t, string(EvaluationInvalidContext), se.Reason)

			var ee *EvaluationError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, EvaluationInvalidContext, ee.Reason)
		})
	}
}

func TestSubmitEvaluateTimeout(t *testing.T) {
	up := &fakeUploader{ref: MediaReference{URL: "https://x/y.mp4", ID: "abc"}}
	ev := &fakeEvaluator{block: true}
	p := NewPipeline(up, ev, WithTimeouts(0, 30*time.Millisecond))

	_, err := p.Submit(context.Background(), []byte("clip"), "video/mp4", familyContext())
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageEvaluate, se.Stage)
	assert.Equal(t, string(EvaluationTimeout), se.Reason)

	var ee *EvaluationError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, EvaluationTimeout, ee.Reason)
}

func TestSubmitEvaluateNetworkError(t *testing.T) {
	up := &fakeUploader{ref: MediaReference{URL: "https://x/y.mp4", ID: "abc"}}
	ev := &fakeEvaluator{err: errors.New("dial tcp: refused")}

	_, err := NewPipeline(up, ev).Submit(context.Background(), []byte("clip"), "video/mp4", familyContext())
	var se *SubmissionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, string(EvaluationNetwork), se.Reason)
}

func TestEvaluateRejectsMalformedVerdict(t *testing.T) {
	tests := []struct {
		name    string
		verdict *Verdict
	}{
		{"nil", nil},
		{"score above range", &Verdict{AccuracyScore: 140, HandShapeDetected: HandOpen, MovementPatternDetected: MoveCurved}},
		{"negative score", &Verdict{AccuracyScore: -1, HandShapeDetected: HandOpen, MovementPatternDetected: MoveCurved}},
		{"unknown hand shape", &Verdict{AccuracyScore: 50, HandShapeDetected: "Fist", MovementPatternDetected: MoveCurved}},
		{"unknown movement", &Verdict{AccuracyScore: 50, HandShapeDetected: HandOpen, MovementPatternDetected: "Spin"}},
		{"bad priority", &Verdict{AccuracyScore: 50, HandShapeDetected: HandOpen, MovementPatternDetected: MoveCurved,
			Improvements: []Improvement{{Aspect: AspectSpeed, Priority: "urgent"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&fakeUploader{}, &fakeEvaluator{verdict: tt.verdict})
			_, err := p.Evaluate(context.Background(), MediaReference{URL: "https://x/y"}, familyContext())
			var ee *EvaluationError
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.Equal(t, EvaluationMalformed, ee.Reason)
		})
	}
}

func TestSubmitIsNotCached(t *testing.T) {
	up := &fakeUploader{ref: MediaReference{URL: "https://x/y.mp4", ID: "abc"}}
	ev := &fakeEvaluator{verdict: goodVerdict()}
	p := NewPipeline(up, ev)

	for i := 0; i < 2; i++ {
		_, err := p.Submit(context.Background(), []byte("clip"), "video/mp4", familyContext())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, up.calls)
	assert.Equal(t, 2, ev.calls)
}
