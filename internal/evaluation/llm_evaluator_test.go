package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/signiz/internal/llm"
)

const verdictJSON = `{"accuracy_score":64,"hand_shape_detected":"Flat","movement_pattern_detected":"Double Arrows","strengths":["steady hands"],"improvements":[{"aspect":"location","issue":"too low","suggestion":"raise to chest","priority":"important"}],"critical_feedback":"raise your hands","encouragement":"keep going"}`

func TestLLMEvaluatorBuildsMultimodalRequest(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(verdictJSON)})
	e := NewLLMEvaluator(mock, DefaultLLMConfig())

	sc := familyContext()
	sc.SignDescription = "Both hands form an F and circle outward"
	sc.ReferenceVideoURL = "https://cdn/family.mp4"
	sc.ReferenceImages = []string{"https://cdn/family-1.png", "https://cdn/family-2.jpg?w=200"}

	v, err := e.Evaluate(context.Background(), MediaReference{URL: "https://cdn/attempt", ID: "a1", MIMEType: "video/webm"}, sc)
	require.NoError(t, err)
	assert.Equal(t, 64.0, v.AccuracyScore)
	assert.Equal(t, MoveDoubleArrows, v.MovementPatternDetected)
	require.Len(t, v.Improvements, 1)
	assert.Equal(t, AspectLocation, v.Improvements[0].Aspect)

	req := mock.LastRequest()
	assert.Same(t, VerdictSchema, req.Schema)
	require.Len(t, req.Messages, 1)
	msg := req.Messages[0]
	assert.Contains(t, msg.Content, "Expected sign: Family")
	assert.Contains(t, msg.Content, "Image 2: https://cdn/family-2.jpg?w=200")
	assert.Contains(t, msg.Content, "Reference video (accurate demonstration): https://cdn/family.mp4")

	require.Len(t, msg.Media, 4)
	assert.Equal(t, "image/png", msg.Media[0].MIMEType)
	assert.Equal(t, "image/jpeg", msg.Media[1].MIMEType)
	assert.Equal(t, "video/mp4", msg.Media[2].MIMEType)
	assert.Equal(t, llm.MediaPart{URL: "https://cdn/attempt", MIMEType: "video/webm"}, msg.Media[3])
}

func TestLLMEvaluatorOmitsMissingOptionalContext(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(verdictJSON)})
	_, err := NewLLMEvaluator(mock, LLMConfig{}).Evaluate(context.Background(), MediaReference{URL: "https://cdn/a.webm"}, familyContext())
	require.NoError(t, err)

	msg := mock.LastRequest().Messages[0]
	assert.NotContains(t, msg.Content, "Reference video")
	assert.NotContains(t, msg.Content, "Reference images")
	require.Len(t, msg.Media, 1)
	assert.Equal(t, "video/webm", msg.Media[0].MIMEType)
	assert.Equal(t, 2048, mock.LastRequest().MaxTokens)
}

func TestLLMEvaluatorErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		resp   llm.MockResponse
		reason EvaluationReason
	}{
		{"invalid response", llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("schema")}}, EvaluationMalformed},
		{"truncated", llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{}}, EvaluationMalformed},
		{"blocked", llm.MockResponse{Err: &llm.ErrContentBlocked{Reason: "SAFETY"}}, EvaluationMalformed},
		{"unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}, EvaluationNetwork},
		{"deadline", llm.MockResponse{Err: context.DeadlineExceeded}, EvaluationTimeout},
		{"bad json", llm.MockResponse{Content: json.RawMessage(`{"accuracy_score":`)}, EvaluationMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider(tt.resp)
			_, err := NewLLMEvaluator(mock, DefaultLLMConfig()).Evaluate(context.Background(), MediaReference{URL: "https://x"}, familyContext())
			var ee *EvaluationError
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.Equal(t, tt.reason, ee.Reason)
		})
	}
}

func TestVerdictSchemaMatchesGoodDocument(t *testing.T) {
	require.NoError(t, llm.ValidateJSON(VerdictSchema, json.RawMessage(verdictJSON)))

	extra := strings.Replace(verdictJSON, `"encouragement"`, `"mood":"happy","encouragement"`, 1)
	assert.Error(t, llm.ValidateJSON(VerdictSchema, json.RawMessage(extra)))
}
