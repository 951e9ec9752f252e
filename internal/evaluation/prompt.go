package evaluation

import (
	"fmt"
	"strings"
)

const evaluatorRole = `You are an expert sign language evaluator and a patient teacher for children.
You compare a learner's recorded sign attempt against the expected sign and give structured, encouraging feedback.
Always acknowledge what the learner does well before pointing out what to improve.`

const signKnowledge = `Hand shapes:
- ILY: thumb, index and pinky extended; middle and ring fingers down.
- Flat: fingers together, palm flat.
- AND: fingers and thumb spread, then brought together.
- Clawed: fingers curved and spread like claws.
- Bent: fingers bent at the knuckles at a right angle.
- Open: all fingers extended and spread.
- Curved: fingers curved naturally into a C shape.

Movement patterns:
- Single Direction: from the start point straight towards the end point.
- Opposite: each hand moves in the opposite direction at the same time.
- Double Arrows: the motion repeats.
- Waves: shaking of the arms, hands or fingertips.
- Curved: the hand follows an arc.
- Circular: the hand moves in a circle.
- Accents: a snap of the fingers or a flick of the wrist.
- Double Pointed: back and forth between two points.
- Double Curved Lines: a pulse or squeezing motion.

Evaluate these aspects: handshape, movement, location, orientation (palm), facial_expression, stability and speed.

Rules:
- Use the hand shape and movement pattern names above in your feedback.
- Prioritise critical errors (wrong hand shape or movement) over minor ones (slight wobble).
- If part of the sign is not visible in the video, say so instead of guessing.
- Keep the language simple enough for a child to follow.`

const structuredOutput = `Respond only with a JSON object matching the provided schema.
accuracy_score is a number from 0 to 100.`

const freeTextOutput = `Respond in plain text with these sections:
Strong Points: one line per strength, each starting with "✓".
Areas for Improvement: one line per issue, each starting with "•".
Overall Accuracy: a percentage.
Finish with one short encouraging sentence.`

// systemPrompt is sent with every structured evaluation request.
var systemPrompt = evaluatorRole + "\n\n" + signKnowledge + "\n\n" + structuredOutput

// freeTextSystemPrompt asks for the prose format ParseFreeText understands.
var freeTextSystemPrompt = evaluatorRole + "\n\n" + signKnowledge + "\n\n" + freeTextOutput

// buildUserPrompt describes the attempt and whatever reference context is
// available. Missing optional fields are simply left out.
func buildUserPrompt(ref MediaReference, sc SignContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Expected sign: %s\n", sc.SignToPerform)
	fmt.Fprintf(&b, "Instructions given to the learner: %s\n", sc.Instructions)

	if sc.SignDescription != "" {
		fmt.Fprintf(&b, "\nSign description:\n%s\n", sc.SignDescription)
	}
	if sc.ReferenceVideoURL != "" {
		fmt.Fprintf(&b, "\nReference video (accurate demonstration): %s\n", sc.ReferenceVideoURL)
	}
	if len(sc.ReferenceImages) > 0 {
		b.WriteString("\nReference images (key positions):\n")
		for i, img := range sc.ReferenceImages {
			fmt.Fprintf(&b, "Image %d: %s\n", i+1, img)
		}
	}

	fmt.Fprintf(&b, "\nLearner's attempt (video): %s\n", ref.URL)
	b.WriteString("\nEvaluate the attempt against the expected sign.")

	return b.String()
}
