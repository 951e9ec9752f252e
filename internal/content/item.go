// Package content holds the lesson catalog: categories of lesson cards,
// multiple choice tests and practical camera tests.
package content

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/abhisek/signiz/internal/evaluation"
)

// Category names a group of lessons.
type Category string

const (
	CategoryFamily    Category = "FAMILY"
	CategoryAlphabets Category = "ALPHABETS"
	CategoryNumerals  Category = "NUMERALS"
	CategoryColors    Category = "COLORS"
	CategoryAnimals   Category = "ANIMALS"
	CategoryFood      Category = "FOOD"
)

// ParseCategory accepts any casing.
func ParseCategory(s string) Category {
	return Category(strings.ToUpper(strings.TrimSpace(s)))
}

// Title returns the display form, e.g. "Family".
func (c Category) Title() string {
	return cases.Title(language.English).String(strings.ToLower(string(c)))
}

// Kind is what an item asks of the learner.
type Kind string

const (
	KindLesson         Kind = "lesson"
	KindMultipleChoice Kind = "multiple-choice"
	KindPractical      Kind = "practical"
)

// MediaType of a lesson or test illustration.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaImage MediaType = "image"
)

// Item is one entry in a category. Which fields are set depends on Kind.
type Item struct {
	Kind      Kind      `toml:"kind"`
	ID        int       `toml:"id"`
	MediaType MediaType `toml:"media_type"`
	MediaSrc  string    `toml:"media_src"`

	// Lesson cards.
	Title       string `toml:"title"`
	Description string `toml:"description"`

	// Multiple choice.
	Question      string   `toml:"question"`
	Options       []string `toml:"options"`
	CorrectAnswer string   `toml:"correct_answer"`

	// Practical tests.
	Sign            string   `toml:"sign"`
	Instructions    string   `toml:"instructions"`
	Hints           []string `toml:"hints"`
	SignDescription string   `toml:"sign_description"`
	ReferenceMedia  string   `toml:"reference_media"`
	ReferenceImages []string `toml:"reference_images"`
}

// IsTest reports whether the item is scored.
func (it Item) IsTest() bool {
	return it.Kind == KindMultipleChoice || it.Kind == KindPractical
}

// Label is a short name for lists.
func (it Item) Label() string {
	switch it.Kind {
	case KindLesson:
		return it.Title
	case KindMultipleChoice:
		return it.Question
	case KindPractical:
		return "Sign: " + it.Sign
	}
	return string(it.Kind)
}

// Correct reports whether answer is the right choice.
func (it Item) Correct(answer string) bool {
	return it.Kind == KindMultipleChoice && answer == it.CorrectAnswer
}

// Practical is the learner-facing view of a practical test.
type Practical struct {
	Category        Category
	LessonID        int
	Sign            string
	Instructions    string
	Hints           []string
	SignDescription string
	ReferenceVideo  string
	ReferenceImages []string
}

// Practical returns the practical test view with media resolved against
// assetsURL. ok is false for other kinds.
func (it Item) Practical(cat Category, assetsURL string) (p Practical, ok bool) {
	if it.Kind != KindPractical {
		return Practical{}, false
	}
	p = Practical{
		Category:        cat,
		LessonID:        it.ID,
		Sign:            it.Sign,
		Instructions:    it.Instructions,
		Hints:           append([]string(nil), it.Hints...),
		SignDescription: it.SignDescription,
	}
	if ref := ResolveMedia(assetsURL, it.ReferenceMedia); ref != "" {
		if isVideo(ref) {
			p.ReferenceVideo = ref
		} else {
			p.ReferenceImages = append(p.ReferenceImages, ref)
		}
	}
	for _, img := range it.ReferenceImages {
		if ref := ResolveMedia(assetsURL, img); ref != "" {
			p.ReferenceImages = append(p.ReferenceImages, ref)
		}
	}
	return p, true
}

// SignContext is what the evaluator needs to grade an attempt.
func (p Practical) SignContext() evaluation.SignContext {
	return evaluation.SignContext{
		SignToPerform:     p.Sign,
		Instructions:      p.Instructions,
		SignDescription:   p.SignDescription,
		ReferenceVideoURL: p.ReferenceVideo,
		ReferenceImages:   p.ReferenceImages,
		Hints:             p.Hints,
		Category:          string(p.Category),
		LessonID:          p.LessonID,
	}
}

// ResolveMedia turns a catalog media path into an absolute URL. Relative
// paths need a base; without one they resolve to "".
func ResolveMedia(base, src string) string {
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case base == "":
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(src, "/")
}

func isVideo(src string) bool {
	switch strings.ToLower(path.Ext(src)) {
	case ".mp4", ".webm", ".mov", ".mkv":
		return true
	}
	return false
}
