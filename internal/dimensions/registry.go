package dimensions

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/patterns"
	"github.com/entrainlab/entrain/internal/textfeat"
	"github.com/entrainlab/entrain/internal/version"
)

// Registry holds one analyzer per dimension, in canonical order.
type Registry struct {
	byCode map[string]Analyzer
	order  []string
}

// NewRegistry builds all six analyzers around one pattern set.
func NewRegistry(set *patterns.Set) *Registry {
	text := textfeat.New(set)
	r := &Registry{byCode: make(map[string]Analyzer)}
	for _, a := range []Analyzer{
		NewSRAnalyzer(text),
		NewLCAnalyzer(text),
		NewAEAnalyzer(text),
		NewRCDAnalyzer(text),
		NewDFAnalyzer(text),
		NewPEAnalyzer(),
	} {
		r.byCode[a.Dimension()] = a
		r.order = append(r.order, a.Dimension())
	}
	return r
}

// Get returns the analyzer for a dimension code. Codes are matched
// case-insensitively.
func (r *Registry) Get(code string) (Analyzer, bool) {
	a, ok := r.byCode[strings.ToUpper(code)]
	return a, ok
}

// All returns every analyzer in canonical order.
func (r *Registry) All() []Analyzer {
	out := make([]Analyzer, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}

// Codes returns the registered dimension codes in canonical order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// UnknownDimensionError reports a dimension code no analyzer claims.
type UnknownDimensionError struct {
	Code  string
	Known []string
}

func (e *UnknownDimensionError) Error() string {
	return fmt.Sprintf("unknown dimension %q (known: %s)", e.Code, strings.Join(e.Known, ", "))
}

// newReport builds the shared skeleton of a dimension report.
func newReport(code string, indicators map[string]models.IndicatorResult, description, baselineComparison, researchContext string, limitations []string) *models.DimensionReport {
	return &models.DimensionReport{
		Dimension:          code,
		Version:            version.Framework,
		Indicators:         indicators,
		Description:        description,
		BaselineComparison: baselineComparison,
		ResearchContext:    researchContext,
		Limitations:        limitations,
		GeneratedAt:        time.Now().UTC(),
	}
}
