package llm

import "context"

type contextKey string

const (
	purposeKey contextKey = "llm_purpose"
	attemptKey contextKey = "llm_attempt"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithAttempt tags the context with the practical-test attempt that caused
// the call so log lines can be joined with submission events.
func WithAttempt(ctx context.Context, attemptID string) context.Context {
	return context.WithValue(ctx, attemptKey, attemptID)
}

// AttemptFrom returns the attempt ID from the context, or "".
func AttemptFrom(ctx context.Context) string {
	v, _ := ctx.Value(attemptKey).(string)
	return v
}
