// Package lessonflow walks a learner through one category: lesson cards,
// multiple choice tests and practical tests, recording each step in the
// progress ledger.
package lessonflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/content"
	"github.com/abhisek/signiz/internal/progress"
	"github.com/abhisek/signiz/internal/store"
)

var (
	// ErrDone is returned by steps taken after the last item.
	ErrDone = errors.New("category already finished")
	// ErrWrongKind is returned when a step does not match the current item.
	ErrWrongKind = errors.New("step does not match current item")
	// ErrNotSaved wraps ledger failures. The flow still advances.
	ErrNotSaved = errors.New("progress not saved")
)

// Summary is shown when a category is finished.
type Summary struct {
	Category   content.Category
	Score      int
	TotalTests int
}

// Percent is the share of tests passed, 0 when there are no tests.
func (s Summary) Percent() int {
	if s.TotalTests == 0 {
		return 0
	}
	return s.Score * 100 / s.TotalTests
}

// Flow is one pass through a category. It is not safe for concurrent use.
type Flow struct {
	category content.Category
	items    []content.Item
	ledger   *progress.Ledger
	events   store.EventRepo
	logger   *zap.Logger

	index int
	score int
	done  bool
}

type Option func(*Flow)

// WithEvents records every step as an attempt event.
func WithEvents(repo store.EventRepo) Option {
	return func(f *Flow) { f.events = repo }
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Start opens a category at the item after the last one completed.
func Start(ctx context.Context, section content.Section, ledger *progress.Ledger, opts ...Option) (*Flow, error) {
	if len(section.Items) == 0 {
		return nil, fmt.Errorf("category %s has no items", section.Name)
	}
	f := &Flow{
		category: section.Name,
		items:    section.Items,
		ledger:   ledger,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}

	idx, err := ledger.ResumeIndex(ctx, string(section.Name), len(section.Items))
	if err != nil {
		return nil, err
	}
	f.index = idx
	return f, nil
}

func (f *Flow) Category() content.Category { return f.category }
func (f *Flow) Index() int                 { return f.index }
func (f *Flow) Len() int                   { return len(f.items) }
func (f *Flow) Score() int                 { return f.score }
func (f *Flow) Done() bool                 { return f.done }

// TotalTests counts the scored items in the category.
func (f *Flow) TotalTests() int {
	n := 0
	for _, it := range f.items {
		if it.IsTest() {
			n++
		}
	}
	return n
}

// Current is the item on screen. ok is false once the flow is done.
func (f *Flow) Current() (content.Item, bool) {
	if f.done {
		return content.Item{}, false
	}
	return f.items[f.index], true
}

// Summary reports the session score.
func (f *Flow) Summary() Summary {
	return Summary{Category: f.category, Score: f.score, TotalTests: f.TotalTests()}
}

// CompleteLesson marks the current lesson card as seen.
func (f *Flow) CompleteLesson(ctx context.Context) error {
	it, err := f.expect(content.KindLesson)
	if err != nil {
		return err
	}
	return f.record(ctx, it, "complete", nil)
}

// AnswerMultipleChoice scores an answer to the current question.
func (f *Flow) AnswerMultipleChoice(ctx context.Context, answer string) (bool, error) {
	it, err := f.expect(content.KindMultipleChoice)
	if err != nil {
		return false, err
	}
	correct := it.Correct(answer)
	score := 0
	if correct {
		score = 1
		f.score++
	}
	return correct, f.record(ctx, it, "answer", &progress.TestScore{LessonID: it.ID, Score: score, Passed: correct})
}

// PassPractical records a passed practical test.
func (f *Flow) PassPractical(ctx context.Context) error {
	it, err := f.expect(content.KindPractical)
	if err != nil {
		return err
	}
	f.score++
	return f.record(ctx, it, "pass", &progress.TestScore{LessonID: it.ID, Score: 1, Passed: true})
}

// SkipPractical moves past a practical test without credit.
func (f *Flow) SkipPractical(ctx context.Context) error {
	it, err := f.expect(content.KindPractical)
	if err != nil {
		return err
	}
	return f.record(ctx, it, "skip", &progress.TestScore{LessonID: it.ID, Score: 0, Passed: false})
}

// Restart goes back to the first item with a fresh score. Stored progress
// is kept.
func (f *Flow) Restart() {
	f.index = 0
	f.score = 0
	f.done = false
}

func (f *Flow) expect(kind content.Kind) (content.Item, error) {
	it, ok := f.Current()
	if !ok {
		return content.Item{}, ErrDone
	}
	if it.Kind != kind {
		return content.Item{}, fmt.Errorf("%w: current item is %s, not %s", ErrWrongKind, it.Kind, kind)
	}
	return it, nil
}

// record writes the step to the ledger and event log, then advances.
func (f *Flow) record(ctx context.Context, it content.Item, action string, score *progress.TestScore) error {
	idx := f.index
	f.advance()

	ev := store.AttemptEventData{
		Category: string(f.category),
		LessonID: it.ID,
		Kind:     string(it.Kind),
		Action:   action,
	}
	if score != nil {
		ev.Score, ev.Passed = score.Score, score.Passed
	}
	if f.events != nil {
		if err := f.events.AppendAttempt(ctx, ev); err != nil {
			f.logger.Warn("failed to record attempt", zap.Error(err))
		}
	}

	if err := f.ledger.Update(ctx, string(f.category), idx, len(f.items), score); err != nil {
		f.logger.Warn("failed to save progress",
			zap.String("category", string(f.category)), zap.Int("index", idx), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	return nil
}

func (f *Flow) advance() {
	if f.index < len(f.items)-1 {
		f.index++
		return
	}
	f.done = true
}
