package school

import (
	"regexp"
	"strings"

	"github.com/bornholm/schoolscout/pkg/search"
)

// Ethiopian phone numbers: "+251" or a leading "0", then groups of 1-2, 3
// and 4 digits optionally separated by a single whitespace.
var phonePattern = regexp.MustCompile(`(?:\+251|0)\s?\d{1,2}\s?\d{3}\s?\d{4}`)

var nameSeparators = []string{" - ", " | "}

// Record is a school found in a search result.
type Record struct {
	Name       string   `json:"name" yaml:"name"`
	Source     string   `json:"source" yaml:"source"`
	Phones     []string `json:"phones" yaml:"phones"`
	Snippet    string   `json:"snippet" yaml:"snippet"`
	HasWebsite bool     `json:"has_website" yaml:"has_website"`
	// Reachable is only set by CheckWebsites, for records with a website.
	Reachable *bool `json:"reachable,omitempty" yaml:"reachable,omitempty"`
}

// ParseResult converts a raw search result into a Record.
func ParseResult(result search.Result) Record {
	return Record{
		Name:       ParseName(result.Title),
		Source:     result.URL,
		Phones:     ExtractPhones(result.Description),
		Snippet:    result.Description,
		HasWebsite: HasWebsite(result.URL),
	}
}

// ParseName keeps the part of a result title before the first " - " or
// " | " separator.
func ParseName(title string) string {
	name := title
	for _, sep := range nameSeparators {
		name, _, _ = strings.Cut(name, sep)
	}

	return strings.TrimSpace(name)
}

// ExtractPhones returns the distinct phone numbers found in text, in order
// of first appearance. Numbers are not canonicalized: "0911223344" and
// "+251911223344" are both kept.
func ExtractPhones(text string) []string {
	matches := phonePattern.FindAllString(text, -1)

	phones := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		if _, exists := seen[m]; exists {
			continue
		}

		seen[m] = struct{}{}
		phones = append(phones, m)
	}

	return phones
}

func HasWebsite(link string) bool {
	return strings.HasPrefix(link, "http")
}
