/*
Package dimensions implements the six influence-dimension analyzers:

	SR  - sycophantic reinforcement
	LC  - linguistic convergence
	AE  - autonomy erosion
	RCD - reality coherence disruption
	DF  - dependency formation
	PE  - prosodic entrainment

Each analyzer computes its indicators for a single conversation or, with
longitudinal trajectories, for a whole corpus. Corpus-level ratios pool
numerators and denominators across conversations rather than averaging
per-conversation ratios, so a two-turn conversation cannot outvote a
two-hundred-turn one. An indicator whose denominator is zero is reported
as insufficient data, never as 0.
*/
package dimensions

import (
	"fmt"
	"math"

	"github.com/entrainlab/entrain/internal/models"
)

// Analyzer measures one influence dimension.
type Analyzer interface {
	// Dimension returns the dimension code (models.DimSR etc).
	Dimension() string
	// RequiredModality reports what content the analyzer needs.
	RequiredModality() models.Modality
	// AnalyzeConversation computes indicators for a single conversation.
	// Returns *ModalityError when the conversation lacks the required
	// modality.
	AnalyzeConversation(conv *models.Conversation) (*models.DimensionReport, error)
	// AnalyzeCorpus computes corpus-level indicators with longitudinal
	// trajectories where the dimension defines them.
	AnalyzeCorpus(corpus *models.Corpus) (*models.DimensionReport, error)
}

// ModalityError reports that the input lacks the modality a dimension
// needs (for example PE analysis of a text-only conversation).
type ModalityError struct {
	Dimension string
	Required  models.Modality
}

func (e *ModalityError) Error() string {
	return fmt.Sprintf("%s analysis requires %s content, but the input has none", e.Dimension, e.Required)
}

// EmptyInputError reports input that is structurally unanalyzable: an
// empty corpus, or a conversation with none of the turns the dimension
// examines.
type EmptyInputError struct {
	Dimension string
	Reason    string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s analysis: %s", e.Dimension, e.Reason)
}

// checkModality returns a *ModalityError unless the conversation carries
// what the analyzer needs.
func checkModality(a Analyzer, conv *models.Conversation) error {
	switch a.RequiredModality() {
	case models.ModalityText:
		if !conv.HasText() {
			return &ModalityError{Dimension: a.Dimension(), Required: models.ModalityText}
		}
	case models.ModalityAudio:
		if !conv.HasAudio() {
			return &ModalityError{Dimension: a.Dimension(), Required: models.ModalityAudio}
		}
	case models.ModalityBoth:
		if !conv.HasText() || !conv.HasAudio() {
			return &ModalityError{Dimension: a.Dimension(), Required: models.ModalityBoth}
		}
	}
	return nil
}

// corpusHasModality reports whether any conversation carries the
// analyzer's required modality.
func corpusHasModality(a Analyzer, corpus *models.Corpus) bool {
	for _, conv := range corpus.Conversations {
		if checkModality(a, conv) == nil {
			return true
		}
	}
	return false
}

// ratio accumulates a pooled numerator/denominator count. The zero value
// is an empty ratio.
type ratio struct {
	num, den int
}

func (r *ratio) add(other ratio) {
	r.num += other.num
	r.den += other.den
}

// value returns num/den; ok is false when the denominator is zero.
func (r ratio) value() (float64, bool) {
	if r.den == 0 {
		return 0, false
	}
	return float64(r.num) / float64(r.den), true
}

// ratioIndicator builds an IndicatorResult from a pooled ratio, marking
// it insufficient when nothing was observed.
func ratioIndicator(name, unit string, r ratio, baseline *float64, confidence float64, interp, why string) models.IndicatorResult {
	v, ok := r.value()
	if !ok {
		return models.InsufficientIndicator(name, unit, why)
	}
	c := confidence
	return models.IndicatorResult{
		Name:           name,
		Value:          v,
		Baseline:       baseline,
		Unit:           unit,
		Confidence:     &c,
		Interpretation: interp,
	}
}

func baselineOf(v float64) *float64 { return &v }

// meanOf averages a sample; ok is false for an empty one.
func meanOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func stdOf(values []float64) float64 {
	mean, ok := meanOf(values)
	if !ok || len(values) < 2 {
		return 0
	}
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
