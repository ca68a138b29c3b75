package catalog

import (
	"regexp"
	"strings"
)

// TestType is the closed set of assessment categories.
type TestType string

const (
	TestTypeCognitive   TestType = "Cognitive"
	TestTypePersonality TestType = "Personality"
	TestTypeSkills      TestType = "Skills"
	TestTypeGeneral     TestType = "General"
)

// DurationNotSpecified marks an assessment whose duration could not be read.
const DurationNotSpecified = "Not specified"

// Defaults for fields the catalog page carries no signal for.
const (
	defaultRemoteTesting   = true
	defaultAdaptiveSupport = false
)

var durationPattern = regexp.MustCompile(`(?i)\d+\s*(?:minutes?|mins?)`)

// testTypeKeywords is checked in order, the first category with a hit wins.
var testTypeKeywords = []struct {
	testType TestType
	keywords []string
}{
	{TestTypeCognitive, []string{"cognitive", "ability", "aptitude"}},
	{TestTypePersonality, []string{"personality", "behavior", "style"}},
	{TestTypeSkills, []string{"skill", "proficiency", "knowledge"}},
}

type Assessments struct {
	Items []*Assessment
}

// Assessment is one catalog entry. Name and URL are never empty.
type Assessment struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	RemoteTesting   bool     `json:"remote_testing"`
	AdaptiveSupport bool     `json:"adaptive_support"`
	Duration        string   `json:"duration"`
	TestType        TestType `json:"test_type"`
}

func (a *Assessments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Items)
}

func (a *Assessments) Names() []string {
	names := make([]string, 0, a.Len())
	for _, item := range a.Items {
		names = append(names, item.Name)
	}
	return names
}

// CountByTestType reports how many records fell into each category.
func (a *Assessments) CountByTestType() map[TestType]int {
	counts := make(map[TestType]int)
	for _, item := range a.Items {
		counts[item.TestType]++
	}
	return counts
}

// ExtractDuration returns the first "<n> minute(s)" / "<n> min(s)" phrase in
// description, or DurationNotSpecified.
func ExtractDuration(description string) string {
	if match := durationPattern.FindString(description); match != "" {
		return match
	}
	return DurationNotSpecified
}

// ClassifyTestType assigns a category by keyword over name and description.
func ClassifyTestType(name, description string) TestType {
	name = strings.ToLower(name)
	description = strings.ToLower(description)

	for _, category := range testTypeKeywords {
		for _, keyword := range category.keywords {
			if strings.Contains(description, keyword) || strings.Contains(name, keyword) {
				return category.testType
			}
		}
	}
	return TestTypeGeneral
}

// ResolveURL turns an href found on the catalog page into an absolute link.
func ResolveURL(origin, href string) string {
	switch {
	case strings.HasPrefix(href, "/"):
		return origin + href
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return origin + "/" + href
	}
}
