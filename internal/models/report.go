package models

import "time"

// Dimension codes for the six measured axes.
const (
	DimSR  = "SR"  // sycophantic reinforcement
	DimLC  = "LC"  // linguistic convergence
	DimAE  = "AE"  // autonomy erosion
	DimRCD = "RCD" // reality coherence disruption
	DimDF  = "DF"  // dependency formation
	DimPE  = "PE"  // prosodic entrainment
)

// AllDimensions lists every dimension code in canonical order.
var AllDimensions = []string{DimSR, DimLC, DimAE, DimRCD, DimDF, DimPE}

var dimensionNames = map[string]string{
	DimSR:  "Sycophantic Reinforcement",
	DimLC:  "Linguistic Convergence",
	DimAE:  "Autonomy Erosion",
	DimRCD: "Reality Coherence Disruption",
	DimDF:  "Dependency Formation",
	DimPE:  "Prosodic Entrainment",
}

// DimensionName returns the human-readable name for a dimension code, or
// the code itself when unknown.
func DimensionName(code string) string {
	if name, ok := dimensionNames[code]; ok {
		return name
	}
	return code
}

// IndicatorResult is one measured metric at one analysis level. When
// Insufficient is true the indicator could not be computed from the
// available data and Value carries no meaning; it is never defaulted to 0.
type IndicatorResult struct {
	Name           string   `json:"name"`
	Value          float64  `json:"value"`
	Insufficient   bool     `json:"insufficientData,omitempty"`
	Baseline       *float64 `json:"baseline,omitempty"` // human-human reference, comparison only
	Unit           string   `json:"unit"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Interpretation string   `json:"interpretation,omitempty"`
}

// InsufficientIndicator builds an indicator marked as not computable.
func InsufficientIndicator(name, unit, why string) IndicatorResult {
	return IndicatorResult{
		Name:           name,
		Insufficient:   true,
		Unit:           unit,
		Interpretation: why,
	}
}

// Trend classifies the direction of a longitudinal trajectory.
type Trend string

const (
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrajectorySnapshot is one (timestamp, value) observation.
type TrajectorySnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TrajectoryData summarizes an ordered measurement sequence: its trend
// direction and, when at least three snapshots exist, the fitted slope.
type TrajectoryData struct {
	Snapshots  []TrajectorySnapshot `json:"snapshots,omitempty"`
	Trend      Trend                `json:"trend"`
	Slope      *float64             `json:"slope,omitempty"` // per observation interval
	Confidence float64              `json:"confidence"`
}

// DimensionReport holds every indicator one analyzer computed for one
// conversation or corpus, plus the descriptive context around them. It
// deliberately carries no severity label; coarse classification belongs to
// the cross-dimensional risk score alone.
type DimensionReport struct {
	Dimension          string                     `json:"dimension"`
	Version            string                     `json:"version"`
	Indicators         map[string]IndicatorResult `json:"indicators"`
	Description        string                     `json:"description"`
	BaselineComparison string                     `json:"baselineComparison"`
	ResearchContext    string                     `json:"researchContext"`
	// Limitations is never empty: every measurement states what it cannot
	// tell the reader.
	Limitations []string        `json:"limitations"`
	Trajectory  *TrajectoryData `json:"trajectory,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// InputSummary describes what was analyzed.
type InputSummary struct {
	Source          string    `json:"source,omitempty"`
	Conversations   int       `json:"conversations"`
	Events          int       `json:"events"`
	UserEvents      int       `json:"userEvents"`
	AssistantEvents int       `json:"assistantEvents"`
	From            time.Time `json:"from,omitzero"`
	To              time.Time `json:"to,omitzero"`
}

// EntrainReport is the top-level assessment: one DimensionReport per
// applicable dimension plus optional cross-dimensional analysis.
type EntrainReport struct {
	Version          string                      `json:"version"`
	GeneratedAt      time.Time                   `json:"generatedAt"`
	Input            InputSummary                `json:"input"`
	Dimensions       map[string]*DimensionReport `json:"dimensions"`
	CrossDimensional *CrossDimensionalReport     `json:"crossDimensional,omitempty"`
}

// DimensionScores reduces each dimension report to a single scalar in
// [0,1]: the mean of its defined indicator values, clamped. Indicators
// marked insufficient are excluded; a dimension with no defined indicator
// is omitted from the map entirely.
func (r *EntrainReport) DimensionScores() map[string]float64 {
	scores := make(map[string]float64, len(r.Dimensions))
	for code, dim := range r.Dimensions {
		sum, n := 0.0, 0
		for _, ind := range dim.Indicators {
			if ind.Insufficient {
				continue
			}
			sum += clamp01(ind.Value)
			n++
		}
		if n > 0 {
			scores[code] = sum / float64(n)
		}
	}
	return scores
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
