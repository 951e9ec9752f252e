// Package grading turns an evaluation verdict into a pass/fail decision.
package grading

import (
	"math/rand"
	"sync"

	"github.com/abhisek/signiz/internal/evaluation"
)

// DefaultPassThreshold is the minimum accuracy score that passes.
const DefaultPassThreshold = 70.0

// Outcome is the gated result of a verdict. Hint is set only on failure.
type Outcome struct {
	Passed bool
	Score  float64
	Hint   string
}

// HintPicker chooses one hint from a non-empty list.
type HintPicker func(hints []string) string

// FirstHint always picks the first hint.
func FirstHint(hints []string) string {
	return hints[0]
}

// RandomHint picks uniformly using r. It is safe for concurrent use.
func RandomHint(r *rand.Rand) HintPicker {
	var mu sync.Mutex
	return func(hints []string) string {
		mu.Lock()
		defer mu.Unlock()
		return hints[r.Intn(len(hints))]
	}
}

// Gate applies the pass rule score >= threshold. A nil pick means FirstHint.
func Gate(v evaluation.Verdict, hints []string, threshold float64, pick HintPicker) Outcome {
	out := Outcome{Score: v.AccuracyScore, Passed: v.AccuracyScore >= threshold}
	if out.Passed || len(hints) == 0 {
		return out
	}
	if pick == nil {
		pick = FirstHint
	}
	out.Hint = pick(hints)
	return out
}
