package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGeminiConfig(t *testing.T) {
	cfg := geminiConfig(Request{
		System:      "You grade signs.",
		Schema:      feedbackSchema(),
		MaxTokens:   512,
		Temperature: 0.2,
	})

	if cfg.MaxOutputTokens != 512 {
		t.Fatalf("MaxOutputTokens = %d", cfg.MaxOutputTokens)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.2) {
		t.Fatalf("Temperature = %v", cfg.Temperature)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "You grade signs." {
		t.Fatalf("system instruction not set: %+v", cfg.SystemInstruction)
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("ResponseMIMEType = %q", cfg.ResponseMIMEType)
	}
	schema, ok := cfg.ResponseJsonSchema.(map[string]any)
	if !ok || schema["type"] != "object" {
		t.Fatalf("schema not passed through: %#v", cfg.ResponseJsonSchema)
	}

	plain := geminiConfig(Request{MaxTokens: 10})
	if plain.Temperature != nil || plain.ResponseJsonSchema != nil || plain.SystemInstruction != nil {
		t.Fatalf("unexpected options on plain request: %+v", plain)
	}
}

func TestBuildGeminiContents_AttachesMedia(t *testing.T) {
	contents := buildGeminiContents([]Message{{
		Role:    RoleUser,
		Content: "Evaluate this attempt.",
		Media: []MediaPart{
			{URL: "https://media.example/clip.webm", MIMEType: "video/webm"},
			{URL: "https://media.example/ref.png", MIMEType: "image/png"},
		},
	}})

	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	parts := contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].FileData == nil || parts[0].FileData.FileURI != "https://media.example/clip.webm" {
		t.Fatalf("expected video file part first, got %+v", parts[0])
	}
	if parts[0].VideoMetadata == nil || *parts[0].VideoMetadata.FPS != signClipFPS {
		t.Fatalf("expected video sampled at %v fps, got %+v", signClipFPS, parts[0].VideoMetadata)
	}
	if parts[1].VideoMetadata != nil {
		t.Fatal("images carry no video metadata")
	}
	if parts[2].Text != "Evaluate this attempt." {
		t.Fatalf("expected text part last, got %q", parts[2].Text)
	}
	if contents[0].Role != "user" {
		t.Fatalf("role = %q", contents[0].Role)
	}
}

func TestBuildGeminiContents_InlineBytes(t *testing.T) {
	contents := buildGeminiContents([]Message{{
		Role:  RoleUser,
		Media: []MediaPart{{URL: "http://localhost:8787/media/a.webm", MIMEType: "video/webm", Data: []byte("clip")}},
	}})

	part := contents[0].Parts[0]
	if part.InlineData == nil || string(part.InlineData.Data) != "clip" || part.InlineData.MIMEType != "video/webm" {
		t.Fatalf("expected inline clip, got %+v", part)
	}
	if part.FileData != nil {
		t.Fatal("inline part must not also reference the URL")
	}
}
