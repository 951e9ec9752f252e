package content

import (
	"strings"
	"testing"
)

func TestBuiltinCatalog(t *testing.T) {
	c := Builtin()
	want := []Category{CategoryFamily, CategoryAlphabets, CategoryNumerals, CategoryColors, CategoryAnimals, CategoryFood}
	got := c.Categories()
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %q, want %q", i, got[i], want[i])
		}
	}

	for _, s := range c.Sections() {
		if len(s.Items) != 8 {
			t.Errorf("%s has %d items, want 8", s.Name, len(s.Items))
		}
		if s.TestCount() != 2 {
			t.Errorf("%s has %d tests, want 2", s.Name, s.TestCount())
		}
		last := s.Items[len(s.Items)-1]
		if last.Kind != KindPractical {
			t.Errorf("%s: last item is %q, want practical", s.Name, last.Kind)
		}
	}
}

func TestFamilyPractical(t *testing.T) {
	items, err := Builtin().Items(CategoryFamily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := items[7].Practical(CategoryFamily, "")
	if !ok {
		t.Fatal("expected item 8 to be a practical test")
	}
	sc := p.SignContext()
	if sc.SignToPerform != "Family" {
		t.Errorf("sign = %q, want Family", sc.SignToPerform)
	}
	if sc.Category != "FAMILY" || sc.LessonID != 8 {
		t.Errorf("unexpected origin %s/%d", sc.Category, sc.LessonID)
	}
	if len(sc.Hints) != 3 || sc.Hints[0] != "Make sure your hand is clearly visible" {
		t.Errorf("unexpected hints %v", sc.Hints)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("sign context should validate: %v", err)
	}
}

func TestPracticalResolvesReferenceMedia(t *testing.T) {
	items, err := Builtin().Items(CategoryAnimals)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := items[7].Practical(CategoryAnimals, "https://cdn.example.com/")
	if p.ReferenceVideo != "https://cdn.example.com/assets/veo3_with_image_input1.mp4" {
		t.Errorf("reference video = %q", p.ReferenceVideo)
	}
	if p.SignDescription == "" {
		t.Error("expected sign description from the Bird lesson")
	}

	items, _ = Builtin().Items(CategoryAlphabets)
	p, _ = items[7].Practical(CategoryAlphabets, "https://cdn.example.com")
	if len(p.ReferenceImages) != 1 || !strings.HasSuffix(p.ReferenceImages[0], "sign_page7_open_hand.png") {
		t.Errorf("reference images = %v", p.ReferenceImages)
	}
	if err := p.SignContext().Validate(); err != nil {
		t.Fatalf("sign context should validate: %v", err)
	}
}

func TestPracticalOnOtherKinds(t *testing.T) {
	if _, ok := (Item{Kind: KindLesson}).Practical(CategoryFood, ""); ok {
		t.Fatal("lesson should not have a practical view")
	}
}

func TestResolveMedia(t *testing.T) {
	tests := []struct {
		base, src, want string
	}{
		{"https://a.test", "/assets/x.png", "https://a.test/assets/x.png"},
		{"https://a.test/", "assets/x.png", "https://a.test/assets/x.png"},
		{"", "/assets/x.png", ""},
		{"", "https://b.test/y.mp4", "https://b.test/y.mp4"},
		{"https://a.test", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveMedia(tt.base, tt.src); got != tt.want {
			t.Errorf("ResolveMedia(%q, %q) = %q, want %q", tt.base, tt.src, got, tt.want)
		}
	}
}

func TestCategoryTitle(t *testing.T) {
	if got := CategoryNumerals.Title(); got != "Numerals" {
		t.Fatalf("Title() = %q, want Numerals", got)
	}
	if got := ParseCategory(" family "); got != CategoryFamily {
		t.Fatalf("ParseCategory = %q", got)
	}
}

func TestUnknownCategory(t *testing.T) {
	if _, err := Builtin().Section("SPORTS"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestMultipleChoiceCorrect(t *testing.T) {
	items, _ := Builtin().Items(CategoryColors)
	mc := items[3]
	if !mc.Correct("Red") || mc.Correct("Blue") {
		t.Fatalf("unexpected answers for %q", mc.Question)
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "no categories"},
		{"duplicate id", `
[[category]]
name = "FAMILY"
[[category.item]]
kind = "lesson"
id = 1
title = "Boy"
media_type = "image"
media_src = "/a.png"
[[category.item]]
kind = "lesson"
id = 1
title = "Girl"
media_type = "image"
media_src = "/b.png"
`, "duplicate id"},
		{"answer not in options", `
[[category]]
name = "COLORS"
[[category.item]]
kind = "multiple-choice"
id = 1
question = "Which?"
options = ["Red", "Blue"]
correct_answer = "Green"
`, "not an option"},
		{"practical without instructions", `
[[category]]
name = "FOOD"
[[category.item]]
kind = "practical"
id = 1
sign = "Apple"
`, "needs instructions"},
		{"lower case name", `
[[category]]
name = "food"
[[category.item]]
kind = "practical"
id = 1
sign = "Apple"
instructions = "Twist your fist"
`, "upper case"},
		{"unknown kind", `
[[category]]
name = "FOOD"
[[category.item]]
kind = "quiz"
id = 1
`, "unknown kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
