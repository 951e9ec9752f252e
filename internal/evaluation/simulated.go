package evaluation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// SimulatedEvaluator is a demo backend that passes attempts at random. It
// never looks at the clip.
type SimulatedEvaluator struct {
	// PassRate is the probability in [0,1] of a passing verdict.
	PassRate float64
	// Delay mimics evaluation latency.
	Delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedEvaluator returns an evaluator drawing from rnd. A nil rnd is
// seeded from the clock.
func NewSimulatedEvaluator(rnd *rand.Rand) *SimulatedEvaluator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedEvaluator{PassRate: 0.7, Delay: 2 * time.Second, rnd: rnd}
}

func (e *SimulatedEvaluator) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	if e.Delay > 0 {
		t := time.NewTimer(e.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	e.mu.Lock()
	passed := e.rnd.Float64() < e.PassRate
	// Scores stay clear of the 70-80 band so the outcome does not depend
	// on which pass threshold is configured.
	var score float64
	if passed {
		score = float64(85 + e.rnd.Intn(16))
	} else {
		score = float64(30 + e.rnd.Intn(30))
	}
	var hint string
	if len(sc.Hints) > 0 {
		hint = sc.Hints[e.rnd.Intn(len(sc.Hints))]
	}
	e.mu.Unlock()

	v := &Verdict{
		AccuracyScore:           score,
		HandShapeDetected:       HandOther,
		MovementPatternDetected: MoveOther,
		Strengths:               []string{},
		Improvements:            []Improvement{},
	}
	if passed {
		v.Strengths = append(v.Strengths, "Clear, confident sign")
		v.Encouragement = fmt.Sprintf("Excellent work! Your sign for %q is accurate.", sc.SignToPerform)
		return v, nil
	}

	v.Encouragement = "Not quite right. Let's try again!"
	if hint != "" {
		v.CriticalFeedback = hint
		v.Improvements = append(v.Improvements, Improvement{
			Aspect:     AspectHandshape,
			Issue:      "The sign did not match closely enough.",
			Suggestion: hint,
			Priority:   PriorityImportant,
		})
	}
	return v, nil
}
