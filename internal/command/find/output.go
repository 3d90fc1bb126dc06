package find

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bornholm/schoolscout/pkg/school"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

var formats = []string{FormatJSON, FormatYAML, FormatMarkdown}

// Report is the document written by the find command.
type Report struct {
	Region     string          `json:"region" yaml:"region"`
	SchoolType string          `json:"schoolType" yaml:"schoolType"`
	Engine     string          `json:"engine" yaml:"engine"`
	Match      string          `json:"match,omitempty" yaml:"match,omitempty"`
	FoundAt    time.Time       `json:"foundAt" yaml:"foundAt"`
	Schools    []school.Record `json:"schools" yaml:"schools"`
}

type encoderFunc func(w io.Writer, report Report) error

func encoderFor(format string) (encoderFunc, string, error) {
	switch format {
	case FormatJSON:
		return encodeJSON, ".json", nil
	case FormatYAML:
		return encodeYAML, ".yaml", nil
	case FormatMarkdown:
		return encodeMarkdown, ".md", nil
	default:
		return nil, "", errors.Errorf("unknown output format '%s'", format)
	}
}

func encodeJSON(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func encodeYAML(w io.Writer, report Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(report); err != nil {
		return errors.WithStack(err)
	}

	if err := encoder.Close(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// encodeMarkdown writes the report metadata as a yaml front matter followed
// by a table of the schools.
func encodeMarkdown(w io.Writer, report Report) error {
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return errors.WithStack(err)
	}

	metadata := struct {
		Region     string    `yaml:"region"`
		SchoolType string    `yaml:"schoolType"`
		Engine     string    `yaml:"engine"`
		Match      string    `yaml:"match,omitempty"`
		FoundAt    time.Time `yaml:"foundAt"`
		Count      int       `yaml:"count"`
	}{
		Region:     report.Region,
		SchoolType: report.SchoolType,
		Engine:     report.Engine,
		Match:      report.Match,
		FoundAt:    report.FoundAt,
		Count:      len(report.Schools),
	}

	encoder := yaml.NewEncoder(w)
	if err := encoder.Encode(metadata); err != nil {
		return errors.Wrapf(err, "failed write report metadata")
	}

	if err := encoder.Close(); err != nil {
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(w, "---\n\n"); err != nil {
		return errors.WithStack(err)
	}

	if _, err := fmt.Fprintf(w, "# %s schools in %s\n\n", report.SchoolType, report.Region); err != nil {
		return errors.WithStack(err)
	}

	if len(report.Schools) == 0 {
		_, err := io.WriteString(w, "No school found.\n")
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(w, "| Name | Phones | Website |\n|---|---|---|\n"); err != nil {
		return errors.WithStack(err)
	}

	for _, s := range report.Schools {
		website := ""
		if s.HasWebsite {
			website = fmt.Sprintf("[%s](%s)", escapeCell(s.Source), s.Source)
			if s.Reachable != nil && !*s.Reachable {
				website += " (unreachable)"
			}
		}

		if _, err := fmt.Fprintf(w, "| %s | %s | %s |\n", escapeCell(s.Name), escapeCell(strings.Join(s.Phones, ", ")), website); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
