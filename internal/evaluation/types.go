// Package evaluation turns a recorded sign clip into a graded verdict: the
// clip is uploaded to a hosting service and the resulting reference is sent
// to an evaluator together with the expected sign.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandShape is the detected hand configuration.
type HandShape string

const (
	HandILY    HandShape = "ILY"
	HandFlat   HandShape = "Flat"
	HandAND    HandShape = "AND"
	HandClawed HandShape = "Clawed"
	HandBent   HandShape = "Bent"
	HandOpen   HandShape = "Open"
	HandCurved HandShape = "Curved"
	HandOther  HandShape = "Other"
)

// HandShapes lists every valid HandShape.
var HandShapes = []HandShape{HandILY, HandFlat, HandAND, HandClawed, HandBent, HandOpen, HandCurved, HandOther}

func (h HandShape) Valid() bool {
	for _, v := range HandShapes {
		if v == h {
			return true
		}
	}
	return false
}

// MovementPattern is the detected motion of the signing hands.
type MovementPattern string

const (
	MoveSingleDirection   MovementPattern = "Single Direction"
	MoveOpposite          MovementPattern = "Opposite"
	MoveDoubleArrows      MovementPattern = "Double Arrows"
	MoveWaves             MovementPattern = "Waves"
	MoveCurved            MovementPattern = "Curved"
	MoveCircular          MovementPattern = "Circular"
	MoveAccents           MovementPattern = "Accents"
	MoveDoublePointed     MovementPattern = "Double Pointed"
	MoveDoubleCurvedLines MovementPattern = "Double Curved Lines"
	MoveOther             MovementPattern = "Other"
)

// MovementPatterns lists every valid MovementPattern.
var MovementPatterns = []MovementPattern{
	MoveSingleDirection, MoveOpposite, MoveDoubleArrows, MoveWaves, MoveCurved,
	MoveCircular, MoveAccents, MoveDoublePointed, MoveDoubleCurvedLines, MoveOther,
}

func (m MovementPattern) Valid() bool {
	for _, v := range MovementPatterns {
		if v == m {
			return true
		}
	}
	return false
}

// Aspect names the part of a sign an improvement refers to.
type Aspect string

const (
	AspectHandshape        Aspect = "handshape"
	AspectMovement         Aspect = "movement"
	AspectLocation         Aspect = "location"
	AspectOrientation      Aspect = "orientation"
	AspectFacialExpression Aspect = "facial_expression"
	AspectStability        Aspect = "stability"
	AspectSpeed            Aspect = "speed"
)

var Aspects = []Aspect{
	AspectHandshape, AspectMovement, AspectLocation, AspectOrientation,
	AspectFacialExpression, AspectStability, AspectSpeed,
}

func (a Aspect) Valid() bool {
	for _, v := range Aspects {
		if v == a {
			return true
		}
	}
	return false
}

// Priority ranks an improvement.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityMinor     Priority = "minor"
)

var Priorities = []Priority{PriorityCritical, PriorityImportant, PriorityMinor}

func (p Priority) Valid() bool {
	return p == PriorityCritical || p == PriorityImportant || p == PriorityMinor
}

// Improvement is one actionable correction.
type Improvement struct {
	Aspect     Aspect   `json:"aspect"`
	Issue      string   `json:"issue"`
	Suggestion string   `json:"suggestion"`
	Priority   Priority `json:"priority"`
}

// Verdict is the structured result of one evaluation. Treat it as
// read-only once returned.
type Verdict struct {
	AccuracyScore           float64         `json:"accuracy_score"`
	HandShapeDetected       HandShape       `json:"hand_shape_detected"`
	MovementPatternDetected MovementPattern `json:"movement_pattern_detected"`
	Strengths               []string        `json:"strengths"`
	Improvements            []Improvement   `json:"improvements"`
	CriticalFeedback        string          `json:"critical_feedback"`
	Encouragement           string          `json:"encouragement"`
}

// Validate checks score range and enum membership.
func (v *Verdict) Validate() error {
	if v.AccuracyScore < 0 || v.AccuracyScore > 100 {
		return fmt.Errorf("accuracy_score %v out of range [0,100]", v.AccuracyScore)
	}
	if !v.HandShapeDetected.Valid() {
		return fmt.Errorf("unknown hand shape %q", v.HandShapeDetected)
	}
	if !v.MovementPatternDetected.Valid() {
		return fmt.Errorf("unknown movement pattern %q", v.MovementPatternDetected)
	}
	for i, imp := range v.Improvements {
		if !imp.Aspect.Valid() {
			return fmt.Errorf("improvements[%d]: unknown aspect %q", i, imp.Aspect)
		}
		if !imp.Priority.Valid() {
			return fmt.Errorf("improvements[%d]: unknown priority %q", i, imp.Priority)
		}
	}
	return nil
}

// MediaReference is a durable handle to an uploaded clip.
type MediaReference struct {
	URL      string `json:"url"`
	ID       string `json:"id"`
	MIMEType string `json:"-"`
}

// SignContext is what the evaluator needs to know about the expected sign.
type SignContext struct {
	SignToPerform     string   `validate:"required,notblank"`
	Instructions      string   `validate:"required,notblank"`
	SignDescription   string
	ReferenceVideoURL string   `validate:"omitempty,url"`
	ReferenceImages   []string `validate:"dive,url"`
	Hints             []string

	// Category and LessonID locate the practical test; used for event
	// records only.
	Category string
	LessonID int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate reports ErrInvalidContext when required fields are missing.
func (c SignContext) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s fails %q", ErrInvalidContext, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}
	return nil
}

// Uploader stores a clip and returns a durable reference to it.
type Uploader interface {
	Upload(ctx context.Context, clip []byte, mimeType string) (MediaReference, error)
}

// Evaluator grades an uploaded clip against the expected sign.
type Evaluator interface {
	Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error)
}
