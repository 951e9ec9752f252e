package evaluation

import "github.com/abhisek/signiz/internal/llm"

func enumValues[T ~string](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// VerdictSchema is the JSON schema every evaluator response must satisfy.
var VerdictSchema = &llm.Schema{
	Name:        "sign-verdict",
	Description: "Structured evaluation of one sign language attempt",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"accuracy_score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     100,
				"description": "A percentage from 0-100 representing overall accuracy",
			},
			"hand_shape_detected": map[string]any{
				"type":        "string",
				"enum":        enumValues(HandShapes),
				"description": "The detected hand shape",
			},
			"movement_pattern_detected": map[string]any{
				"type":        "string",
				"enum":        enumValues(MovementPatterns),
				"description": "The detected movement pattern",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific strengths using technical terminology",
			},
			"improvements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"aspect": map[string]any{
							"type": "string",
							"enum": enumValues(Aspects),
						},
						"issue": map[string]any{
							"type":        "string",
							"description": "What is wrong, specifically",
						},
						"suggestion": map[string]any{
							"type":        "string",
							"description": "How to fix it, using technical terms",
						},
						"priority": map[string]any{
							"type": "string",
							"enum": enumValues(Priorities),
						},
					},
					"required":             []any{"aspect", "issue", "suggestion", "priority"},
					"additionalProperties": false,
				},
			},
			"critical_feedback": map[string]any{
				"type":        "string",
				"description": "The one or two most important things to focus on first",
			},
			"encouragement": map[string]any{
				"type":        "string",
				"description": "A motivating message for a young learner",
			},
		},
		"required": []any{
			"accuracy_score", "hand_shape_detected", "movement_pattern_detected",
			"strengths", "improvements", "critical_feedback", "encouragement",
		},
		"additionalProperties": false,
	},
}
