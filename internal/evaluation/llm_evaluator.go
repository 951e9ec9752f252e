package evaluation

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/abhisek/signiz/internal/llm"
)

// LLMConfig controls evaluation requests sent to a model.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultLLMConfig returns the evaluator defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{MaxTokens: 2048, Temperature: 0.2}
}

// LLMEvaluator grades attempts with a multimodal model using VerdictSchema
// as structured output.
type LLMEvaluator struct {
	provider llm.Provider
	config   LLMConfig
}

// NewLLMEvaluator creates an evaluator backed by provider.
func NewLLMEvaluator(provider llm.Provider, cfg LLMConfig) *LLMEvaluator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultLLMConfig().MaxTokens
	}
	return &LLMEvaluator{provider: provider, config: cfg}
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	ctx = llm.WithPurpose(ctx, "sign-eval")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildUserPrompt(ref, sc),
			Media:   attemptMedia(ref, sc),
		}},
		Schema:      VerdictSchema,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return nil, classifyLLMError(err)
	}
	return decodeVerdict(resp.Content)
}

// attemptMedia lists reference images first and the learner's clip last.
func attemptMedia(ref MediaReference, sc SignContext) []llm.MediaPart {
	var parts []llm.MediaPart
	for _, img := range sc.ReferenceImages {
		parts = append(parts, llm.MediaPart{URL: img, MIMEType: guessMIME(img, "image/png")})
	}
	if sc.ReferenceVideoURL != "" {
		parts = append(parts, llm.MediaPart{URL: sc.ReferenceVideoURL, MIMEType: guessMIME(sc.ReferenceVideoURL, "video/mp4")})
	}
	clipType := ref.MIMEType
	if clipType == "" {
		clipType = guessMIME(ref.URL, "video/webm")
	}
	parts = append(parts, llm.MediaPart{URL: ref.URL, MIMEType: clipType})
	return parts
}

var knownMedia = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func guessMIME(rawURL, fallback string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	if t, ok := knownMedia[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return strings.Split(t, ";")[0]
	}
	return fallback
}

// classifyLLMError maps provider failures onto evaluation reasons. Output
// the model produced but that cannot be used is malformed; everything else
// is a transport problem unless the deadline passed.
func classifyLLMError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &EvaluationError{Reason: EvaluationTimeout, Err: err}
	}

	var invalid *llm.ErrInvalidResponse
	var maxTok *llm.ErrMaxTokensExceeded
	var blocked *llm.ErrContentBlocked
	switch {
	case errors.As(err, &invalid), errors.As(err, &maxTok), errors.As(err, &blocked):
		return &EvaluationError{Reason: EvaluationMalformed, Err: err}
	default:
		return &EvaluationError{Reason: EvaluationNetwork, Err: fmt.Errorf("model call: %w", err)}
	}
}
