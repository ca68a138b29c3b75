package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/mapstructure"
)

const (
	defaultNameSelector        = "h2, h3, .assessment-title"
	defaultDescriptionSelector = "p, .assessment-description"
)

var tagPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

// Detector recognises the assessment sections of one known page layout and
// knows how to read a record out of each of them.
type Detector interface {
	Name() string
	Detect(doc *goquery.Document) *goquery.Selection
	Extract(section *goquery.Selection, origin string) (*Assessment, bool)
}

// Shape is a class-name based page layout: any element with one of Tags whose
// class list has a token containing one of Classes is an assessment section.
type Shape struct {
	Label    string   `mapstructure:"name"`
	Tags     []string `mapstructure:"tags"`
	Classes  []string `mapstructure:"classes"`
	FoldCase bool     `mapstructure:"fold-case"`

	// Selectors for the section fields, defaults apply when empty.
	NameSelector        string `mapstructure:"name-selector"`
	DescriptionSelector string `mapstructure:"description-selector"`
}

// DefaultShapes returns the built-in cascade, most specific layout first.
func DefaultShapes() []Shape {
	return []Shape{
		{
			Label:   "cards",
			Tags:    []string{"div", "article"},
			Classes: []string{"product-card", "assessment-item"},
		},
		{
			Label:   "items",
			Tags:    []string{"div"},
			Classes: []string{"product", "assessment", "catalog-item"},
		},
		{
			Label:   "listings",
			Tags:    []string{"section", "div"},
			Classes: []string{"product-listing", "assessment-listing"},
		},
		{
			Label:    "generic",
			Tags:     []string{"div", "article", "section"},
			Classes:  []string{"product", "assessment", "catalog"},
			FoldCase: true,
		},
	}
}

// DecodeShapes reads a cascade from loosely typed configuration such as the
// value of a viper key holding a YAML list.
func DecodeShapes(raw any) ([]Shape, error) {
	var shapes []Shape

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &shapes,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode page shapes: %w", err)
	}

	for i := range shapes {
		if strings.TrimSpace(shapes[i].Label) == "" {
			shapes[i].Label = fmt.Sprintf("shape-%d", i+1)
		}
		if err := shapes[i].Validate(); err != nil {
			return nil, err
		}
	}

	if len(shapes) == 0 {
		return nil, errors.New("decode page shapes: at least one shape is required")
	}

	return shapes, nil
}

// Validate rejects shapes that could never match anything.
func (s Shape) Validate() error {
	if len(s.Tags) == 0 {
		return fmt.Errorf("shape %q: tags are required", s.Label)
	}
	for _, tag := range s.Tags {
		if !tagPattern.MatchString(tag) {
			return fmt.Errorf("shape %q: invalid tag %q", s.Label, tag)
		}
	}
	if len(s.Classes) == 0 {
		return fmt.Errorf("shape %q: classes are required", s.Label)
	}
	for _, class := range s.Classes {
		if strings.TrimSpace(class) == "" {
			return fmt.Errorf("shape %q: empty class keyword", s.Label)
		}
	}
	return nil
}

func (s Shape) Name() string { return s.Label }

func (s Shape) Detect(doc *goquery.Document) *goquery.Selection {
	return doc.Find(strings.Join(s.Tags, ", ")).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return s.matchesClass(sel.AttrOr("class", ""))
	})
}

func (s Shape) matchesClass(attr string) bool {
	for _, token := range strings.Fields(attr) {
		if s.FoldCase {
			token = strings.ToLower(token)
		}
		for _, class := range s.Classes {
			if s.FoldCase {
				class = strings.ToLower(class)
			}
			if strings.Contains(token, class) {
				return true
			}
		}
	}
	return false
}

func (s Shape) nameSelector() string {
	if strings.TrimSpace(s.NameSelector) == "" {
		return defaultNameSelector
	}
	return s.NameSelector
}

func (s Shape) descriptionSelector() string {
	if strings.TrimSpace(s.DescriptionSelector) == "" {
		return defaultDescriptionSelector
	}
	return s.DescriptionSelector
}
