package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive structured JSON.
type Provider interface {
	// Generate sends a prompt to the LLM and returns a structured response.
	// The request's Schema field, when set, instructs the provider to return
	// JSON conforming to that schema. The response Content will be the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. Sign evaluation sends a single
	// user message carrying the clip and reference media.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is the raw text.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string

	// Media lists remote images or videos attached to the message. Providers
	// that cannot ingest a media type natively receive its URL as text.
	Media []MediaPart
}

// MediaPart references a remotely hosted image or video. Data, when set,
// holds the downloaded bytes and is sent in place of the URL.
type MediaPart struct {
	URL      string
	MIMEType string
	Data     []byte
}

// Inline reports whether the part carries its bytes.
func (m MediaPart) Inline() bool {
	return len(m.Data) > 0
}

// DataURL encodes inline bytes as a data: URL. Without bytes it returns URL.
func (m MediaPart) DataURL() string {
	if !m.Inline() {
		return m.URL
	}
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// IsImage reports whether the part is an image.
func (m MediaPart) IsImage() bool {
	return strings.HasPrefix(m.MIMEType, "image/")
}

// IsVideo reports whether the part is a video.
func (m MediaPart) IsVideo() bool {
	return strings.HasPrefix(m.MIMEType, "video/")
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (schema name for OpenAI, cache key for
	// validation). Kebab-case, e.g. "sign-verdict".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON object.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "blocked"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// mediaAsText renders media parts a provider cannot ingest natively as a
// list of URLs appended to the message text.
func mediaAsText(content string, parts []MediaPart) string {
	if len(parts) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	for _, p := range parts {
		b.WriteString("\n[")
		b.WriteString(p.MIMEType)
		b.WriteString("] ")
		b.WriteString(p.URL)
	}
	return b.String()
}
