/*
Package report renders an assessment into its output formats: JSON for
programmatic consumption, markdown for humans, CSV for spreadsheet and
statistical tooling.

Renderers are pure: they read the report and write bytes, with stable
ordering so two renders of the same report are byte-identical.
*/
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// Format selects an output renderer.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat maps a user-supplied format name, accepting the common
// aliases ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md", "text":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown report format %q (supported: json, markdown, csv)", s)
}

// Write renders the report in the given format.
func Write(w io.Writer, r *models.EntrainReport, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatMarkdown:
		return writeMarkdown(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// Save renders the report to a file.
func Save(path string, r *models.EntrainReport, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	if err := Write(f, r, format); err != nil {
		return err
	}
	return f.Close()
}

// Extension returns the conventional file extension for a format.
func Extension(format Format) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// orderedDimensions returns the report's dimension codes in canonical
// order, unknown codes sorted after the known ones.
func orderedDimensions(r *models.EntrainReport) []string {
	var codes []string
	for _, code := range models.AllDimensions {
		if _, ok := r.Dimensions[code]; ok {
			codes = append(codes, code)
		}
	}
	var extra []string
	known := make(map[string]bool, len(codes))
	for _, code := range codes {
		known[code] = true
	}
	for code := range r.Dimensions {
		if !known[code] {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	return append(codes, extra...)
}

// orderedIndicators returns indicator names sorted for stable output.
func orderedIndicators(indicators map[string]models.IndicatorResult) []string {
	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// levelIcon marks risk levels in markdown output.
func levelIcon(l models.Level) string {
	switch l {
	case models.LevelLow:
		return "🟢"
	case models.LevelModerate:
		return "🟡"
	case models.LevelHigh:
		return "🟠"
	case models.LevelSevere:
		return "🔴"
	}
	return "⚪"
}
