// Package progress is the learner's per-category progress ledger. The whole
// ledger is one JSON document in the store's key-value table.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/signiz/internal/store"
)

// StorageKey is the key the ledger is stored under.
const StorageKey = "sign_language_progress"

// TestScore is the latest result of one test in a category.
type TestScore struct {
	LessonID int  `json:"lessonId"`
	Score    int  `json:"score"`
	Passed   bool `json:"passed"`
}

// CategoryProgress is what the ledger knows about one category.
type CategoryProgress struct {
	// LastCompletedIndex is -1 when nothing has been completed.
	LastCompletedIndex   int         `json:"lastCompletedIndex"`
	TestScores           []TestScore `json:"testScores"`
	CompletionPercentage int         `json:"completionPercentage"`
	LastAccessedDate     time.Time   `json:"lastAccessedDate"`
}

// Score returns the stored result for lessonID.
func (p CategoryProgress) Score(lessonID int) (TestScore, bool) {
	for _, s := range p.TestScores {
		if s.LessonID == lessonID {
			return s, true
		}
	}
	return TestScore{}, false
}

// Ledger reads and writes category progress. Writes are serialized within
// a process.
type Ledger struct {
	kv     store.KVRepo
	now    func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

type Option func(*Ledger)

// WithClock sets the time source for LastAccessedDate.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger creates a ledger over kv.
func NewLedger(kv store.KVRepo, opts ...Option) *Ledger {
	l := &Ledger{kv: kv, now: time.Now, logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// load returns the stored mapping. A document that does not decode is
// logged and treated as empty so the next write replaces it.
func (l *Ledger) load(ctx context.Context) (map[string]CategoryProgress, error) {
	raw, ok, err := l.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("reading progress: %w", err)
	}
	all := map[string]CategoryProgress{}
	if !ok || len(raw) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		l.logger.Warn("discarding unreadable progress", zap.Error(err))
		return map[string]CategoryProgress{}, nil
	}
	return all, nil
}

func (l *Ledger) save(ctx context.Context, all map[string]CategoryProgress) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := l.kv.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	return nil
}

// Get returns the progress of category, or nil when there is none.
func (l *Ledger) Get(ctx context.Context, category string) (*CategoryProgress, error) {
	all, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := all[category]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// All returns every category with progress.
func (l *Ledger) All(ctx context.Context) (map[string]CategoryProgress, error) {
	return l.load(ctx)
}

// Update records that the learner finished the item at lessonIndex of a
// category with totalLessons items. The completed index only moves forward
// and a score replaces any earlier score for the same lesson.
func (l *Ledger) Update(ctx context.Context, category string, lessonIndex, totalLessons int, score *TestScore) error {
	if totalLessons <= 0 {
		return errors.New("total lessons must be positive")
	}
	if lessonIndex < 0 || lessonIndex >= totalLessons {
		return fmt.Errorf("lesson index %d out of range [0, %d)", lessonIndex, totalLessons)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load(ctx)
	if err != nil {
		return err
	}
	p, ok := all[category]
	if !ok {
		p = CategoryProgress{LastCompletedIndex: -1, TestScores: []TestScore{}}
	}

	if lessonIndex > p.LastCompletedIndex {
		p.LastCompletedIndex = lessonIndex
	}
	if score != nil {
		p.TestScores = slices.DeleteFunc(p.TestScores, func(s TestScore) bool {
			return s.LessonID == score.LessonID
		})
		p.TestScores = append(p.TestScores, *score)
	}
	p.CompletionPercentage = percent(p.LastCompletedIndex, totalLessons)
	p.LastAccessedDate = l.now().UTC()

	all[category] = p
	return l.save(ctx, all)
}

func percent(lastCompleted, total int) int {
	pct := int(math.Round(float64(lastCompleted+1) / float64(total) * 100))
	return min(max(pct, 0), 100)
}

// Reset forgets one category.
func (l *Ledger) Reset(ctx context.Context, category string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[category]; !ok {
		return nil
	}
	delete(all, category)
	return l.save(ctx, all)
}

// ResetAll forgets everything.
func (l *Ledger) ResetAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("deleting progress: %w", err)
	}
	return nil
}

// CompletionPercentage is 0 for a category without progress.
func (l *Ledger) CompletionPercentage(ctx context.Context, category string) (int, error) {
	p, err := l.Get(ctx, category)
	if err != nil || p == nil {
		return 0, err
	}
	return p.CompletionPercentage, nil
}

// IsCategoryCompleted reports whether the last item has been completed.
func (l *Ledger) IsCategoryCompleted(ctx context.Context, category string, totalLessons int) (bool, error) {
	p, err := l.Get(ctx, category)
	if err != nil || p == nil {
		return false, err
	}
	return p.LastCompletedIndex >= totalLessons-1, nil
}

// ResumeIndex is the item to show next: the one after the last completed,
// held at the final item once everything is done.
func (l *Ledger) ResumeIndex(ctx context.Context, category string, totalLessons int) (int, error) {
	p, err := l.Get(ctx, category)
	if err != nil || p == nil || p.LastCompletedIndex < 0 {
		return 0, err
	}
	return min(p.LastCompletedIndex+1, max(totalLessons-1, 0)), nil
}
