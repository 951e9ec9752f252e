package content

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var builtinCatalog []byte

// Section is one category with its ordered items.
type Section struct {
	Name  Category `toml:"name"`
	Emoji string   `toml:"emoji"`
	Items []Item   `toml:"item"`
}

// TestCount is the number of scored items.
func (s Section) TestCount() int {
	n := 0
	for _, it := range s.Items {
		if it.IsTest() {
			n++
		}
	}
	return n
}

// Catalog is an immutable, validated set of sections.
type Catalog struct {
	sections []Section
	byName   map[Category]int
}

type catalogFile struct {
	Category []Section `toml:"category"`
}

// Parse decodes and validates a TOML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := validateSections(f.Category); err != nil {
		return nil, err
	}
	c := &Catalog{sections: f.Category, byName: make(map[Category]int, len(f.Category))}
	for i, s := range c.sections {
		c.byName[s.Name] = i
	}
	return c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

var builtin = sync.OnceValue(func() *Catalog {
	c, err := Parse(builtinCatalog)
	if err != nil {
		panic("content: built-in catalog is invalid: " + err.Error())
	}
	return c
})

// Builtin returns the catalog that ships with signiz.
func Builtin() *Catalog {
	return builtin()
}

// Load returns the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// Sections returns all sections in display order.
func (c *Catalog) Sections() []Section {
	return slices.Clone(c.sections)
}

// Categories returns the category names in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.sections))
	for i, s := range c.sections {
		out[i] = s.Name
	}
	return out
}

// Section returns one category.
func (c *Catalog) Section(name Category) (Section, error) {
	i, ok := c.byName[name]
	if !ok {
		return Section{}, fmt.Errorf("unknown category: %q", name)
	}
	s := c.sections[i]
	s.Items = slices.Clone(s.Items)
	return s, nil
}

// Items returns the ordered items of a category.
func (c *Catalog) Items(name Category) ([]Item, error) {
	s, err := c.Section(name)
	if err != nil {
		return nil, err
	}
	return s.Items, nil
}

// validateSections returns a combined error describing all problems found.
func validateSections(sections []Section) error {
	var errs []string
	if len(sections) == 0 {
		errs = append(errs, "catalog has no categories")
	}

	names := make(map[Category]bool, len(sections))
	for _, s := range sections {
		if s.Name == "" {
			errs = append(errs, "category with empty name")
			continue
		}
		if s.Name != ParseCategory(string(s.Name)) {
			errs = append(errs, fmt.Sprintf("category %q must be upper case", s.Name))
		}
		if names[s.Name] {
			errs = append(errs, fmt.Sprintf("duplicate category: %q", s.Name))
		}
		names[s.Name] = true
		if len(s.Items) == 0 {
			errs = append(errs, fmt.Sprintf("category %q has no items", s.Name))
		}

		ids := make(map[int]bool, len(s.Items))
		for _, it := range s.Items {
			prefix := fmt.Sprintf("%s item %d", s.Name, it.ID)
			if ids[it.ID] {
				errs = append(errs, fmt.Sprintf("%s: duplicate id", prefix))
			}
			ids[it.ID] = true
			errs = append(errs, validateItem(prefix, it)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func validateItem(prefix string, it Item) []string {
	var errs []string
	if it.MediaType != "" && it.MediaType != MediaVideo && it.MediaType != MediaImage {
		errs = append(errs, fmt.Sprintf("%s: unknown media type %q", prefix, it.MediaType))
	}
	switch it.Kind {
	case KindLesson:
		if it.Title == "" {
			errs = append(errs, prefix+": lesson needs a title")
		}
		if it.MediaSrc == "" || it.MediaType == "" {
			errs = append(errs, prefix+": lesson needs media")
		}
	case KindMultipleChoice:
		if it.Question == "" {
			errs = append(errs, prefix+": question is empty")
		}
		if len(it.Options) < 2 {
			errs = append(errs, prefix+": needs at least two options")
		}
		if !slices.Contains(it.Options, it.CorrectAnswer) {
			errs = append(errs, fmt.Sprintf("%s: correct answer %q is not an option", prefix, it.CorrectAnswer))
		}
	case KindPractical:
		if strings.TrimSpace(it.Sign) == "" {
			errs = append(errs, prefix+": practical test needs a sign")
		}
		if strings.TrimSpace(it.Instructions) == "" {
			errs = append(errs, prefix+": practical test needs instructions")
		}
	default:
		errs = append(errs, fmt.Sprintf("%s: unknown kind %q", prefix, it.Kind))
	}
	return errs
}
