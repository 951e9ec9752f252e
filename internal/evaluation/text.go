package evaluation

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/signiz/internal/llm"
)

// TextEvaluator asks a model for prose feedback and maps it onto a Verdict
// with ParseFreeText. It exists for models without structured output.
type TextEvaluator struct {
	provider llm.Provider
	config   LLMConfig
}

// NewTextEvaluator creates a free-text evaluator backed by provider.
func NewTextEvaluator(provider llm.Provider, cfg LLMConfig) *TextEvaluator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultLLMConfig().MaxTokens
	}
	return &TextEvaluator{provider: provider, config: cfg}
}

func (e *TextEvaluator) Evaluate(ctx context.Context, ref MediaReference, sc SignContext) (*Verdict, error) {
	ctx = llm.WithPurpose(ctx, "sign-eval-text")

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: freeTextSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: buildUserPrompt(ref, sc),
			Media:   attemptMedia(ref, sc),
		}},
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	})
	if err != nil {
		return nil, classifyLLMError(err)
	}

	text := strings.TrimSpace(string(resp.Content))
	if text == "" {
		return nil, &EvaluationError{Reason: EvaluationMalformed, Err: errEmptyText}
	}
	v := ParseFreeText(text)
	return &v, nil
}

var errEmptyText = errors.New("model returned no text")

var (
	percentRe  = regexp.MustCompile(`(?i)(?:accuracy|score)[^0-9\n]{0,20}(\d{1,3})(?:\s*%|\s*/\s*100)?`)
	anyPercent = regexp.MustCompile(`(\d{1,3})\s*%`)
)

var positiveWords = []string{"excellent", "great job", "well done", "perfect", "accurate", "correct", "spot-on", "nailed"}
var negativeWords = []string{"incorrect", "wrong", "not quite", "try again", "missing", "unclear", "off"}

// handShapeCues is checked in order; longer phrases come first so that
// "open hand" wins over a bare "open".
var handShapeCues = []struct {
	cue   string
	shape HandShape
}{
	{"ily", HandILY},
	{"i love you", HandILY},
	{"flat hand", HandFlat},
	{"and hand", HandAND},
	{"and-shape", HandAND},
	{"clawed", HandClawed},
	{"claw", HandClawed},
	{"bent hand", HandBent},
	{"open hand", HandOpen},
	{"curved hand", HandCurved},
	{"c-shape", HandCurved},
	{"c shape", HandCurved},
	{"flat", HandFlat},
	{"bent", HandBent},
	{"open", HandOpen},
}

var movementCues = []struct {
	cue     string
	pattern MovementPattern
}{
	{"double curved lines", MoveDoubleCurvedLines},
	{"double pointed", MoveDoublePointed},
	{"double arrows", MoveDoubleArrows},
	{"double arrow", MoveDoubleArrows},
	{"single direction", MoveSingleDirection},
	{"opposite", MoveOpposite},
	{"circular", MoveCircular},
	{"circle", MoveCircular},
	{"curved arrow", MoveCurved},
	{"arc", MoveCurved},
	{"waves", MoveWaves},
	{"wave", MoveWaves},
	{"shaking", MoveWaves},
	{"snap", MoveAccents},
	{"flick", MoveAccents},
	{"accent", MoveAccents},
	{"repeated", MoveDoubleArrows},
	{"repetition", MoveDoubleArrows},
	{"back and forth", MoveDoublePointed},
	{"squeezing", MoveDoubleCurvedLines},
}

var aspectCues = []struct {
	cue    string
	aspect Aspect
}{
	{"hand shape", AspectHandshape},
	{"handshape", AspectHandshape},
	{"finger", AspectHandshape},
	{"thumb", AspectHandshape},
	{"palm", AspectOrientation},
	{"orientation", AspectOrientation},
	{"facial", AspectFacialExpression},
	{"face", AspectFacialExpression},
	{"expression", AspectFacialExpression},
	{"bounc", AspectStability},
	{"steady", AspectStability},
	{"stabil", AspectStability},
	{"wobbl", AspectStability},
	{"speed", AspectSpeed},
	{"fast", AspectSpeed},
	{"slow", AspectSpeed},
	{"location", AspectLocation},
	{"height", AspectLocation},
	{"position", AspectLocation},
	{"higher", AspectLocation},
	{"lower", AspectLocation},
	{"chin", AspectLocation},
	{"movement", AspectMovement},
	{"motion", AspectMovement},
}

// ParseFreeText is a best-effort classifier from evaluator prose to a
// Verdict. It never fails: unknown detail falls back to Other and a
// neutral score.
func ParseFreeText(text string) Verdict {
	lower := strings.ToLower(text)

	v := Verdict{
		AccuracyScore:           scoreFromText(lower),
		HandShapeDetected:       HandOther,
		MovementPatternDetected: MoveOther,
		Strengths:               []string{},
		Improvements:            []Improvement{},
	}

	for _, c := range handShapeCues {
		if containsWord(lower, c.cue) {
			v.HandShapeDetected = c.shape
			break
		}
	}
	for _, c := range movementCues {
		if containsWord(lower, c.cue) {
			v.MovementPatternDetected = c.pattern
			break
		}
	}

	var section string
	var paragraphs []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		l := strings.ToLower(strings.Trim(line, "*#_ "))
		switch {
		case strings.HasPrefix(l, "strong points"), strings.HasPrefix(l, "strengths"):
			section = "strengths"
			continue
		case strings.HasPrefix(l, "areas for improvement"), strings.HasPrefix(l, "improvements"):
			section = "improvements"
			continue
		case strings.HasPrefix(l, "overall accuracy"):
			section = ""
			continue
		}

		item, bulleted := stripBullet(line)
		switch {
		case strings.HasPrefix(line, "✓") || (bulleted && section == "strengths"):
			v.Strengths = append(v.Strengths, item)
		case bulleted && section == "improvements", strings.HasPrefix(line, "•"):
			v.Improvements = append(v.Improvements, improvementFromLine(item, len(v.Improvements)))
		default:
			paragraphs = append(paragraphs, line)
		}
	}

	if len(v.Improvements) > 0 {
		v.CriticalFeedback = v.Improvements[0].Issue
	}
	if len(paragraphs) > 0 {
		v.Encouragement = paragraphs[len(paragraphs)-1]
	}
	return v
}

func scoreFromText(lower string) float64 {
	for _, re := range []*regexp.Regexp{percentRe, anyPercent} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n <= 100 {
				return float64(n)
			}
		}
	}

	pos, neg := 0, 0
	for _, w := range positiveWords {
		if containsWord(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if containsWord(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return 85
	case neg > pos:
		return 40
	default:
		return 60
	}
}

func improvementFromLine(line string, index int) Improvement {
	label, body := "", line
	if head, rest, ok := strings.Cut(line, ":"); ok && len(head) < 30 {
		label, body = head, strings.TrimSpace(rest)
	}

	issue, suggestion := body, ""
	if before, after, ok := strings.Cut(body, ". "); ok {
		issue, suggestion = before+".", strings.TrimSpace(after)
	}

	aspect, ok := aspectFor(strings.ToLower(label))
	if !ok {
		aspect, _ = aspectFor(strings.ToLower(body))
	}

	priority := PriorityMinor
	switch index {
	case 0:
		priority = PriorityCritical
	case 1:
		priority = PriorityImportant
	}
	return Improvement{Aspect: aspect, Issue: issue, Suggestion: suggestion, Priority: priority}
}

func aspectFor(lower string) (Aspect, bool) {
	for _, c := range aspectCues {
		if strings.Contains(lower, c.cue) {
			return c.aspect, true
		}
	}
	return AspectMovement, false
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"✓", "•", "- ", "* "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return line, false
}

// containsWord reports whether needle appears in s bounded by non-letters.
func containsWord(s, needle string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], needle)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(needle)
		if (start == 0 || !isLetter(s[start-1])) && (end == len(s) || !isLetter(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
