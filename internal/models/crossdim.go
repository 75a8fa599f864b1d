package models

import "sort"

// Level grades risk scores and detected patterns.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelSevere   Level = "SEVERE"
)

// levelRank orders levels for sorting; higher is more severe.
func levelRank(l Level) int {
	switch l {
	case LevelSevere:
		return 3
	case LevelHigh:
		return 2
	case LevelModerate:
		return 1
	default:
		return 0
	}
}

// MoreSevere reports whether a outranks b.
func MoreSevere(a, b Level) bool { return levelRank(a) > levelRank(b) }

// CorrelationMatrix holds pairwise Pearson coefficients between dimension
// score vectors. The matrix is symmetric with a fixed 1.0 diagonal. A pair
// with fewer than two co-observed samples has no entry at all: undefined
// is represented by absence, never by zero.
type CorrelationMatrix struct {
	Dimensions   []string                      `json:"dimensions"`
	Coefficients map[string]map[string]float64 `json:"coefficients"`
}

// Get returns the coefficient for a dimension pair. The diagonal is always
// defined as 1.0 for known dimensions; off-diagonal lookups work in either
// order.
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	if row, ok := m.Coefficients[a]; ok {
		if r, ok := row[b]; ok {
			return r, true
		}
	}
	return 0, false
}

// StrongCorrelation is one dimension pair whose coefficient magnitude
// cleared a threshold.
type StrongCorrelation struct {
	A, B string
	R    float64
}

// StrongCorrelations returns off-diagonal pairs with |r| >= threshold,
// strongest first. Each pair appears once.
func (m *CorrelationMatrix) StrongCorrelations(threshold float64) []StrongCorrelation {
	var strong []StrongCorrelation
	for i, a := range m.Dimensions {
		for _, b := range m.Dimensions[i+1:] {
			r, ok := m.Get(a, b)
			if ok && abs(r) >= threshold {
				strong = append(strong, StrongCorrelation{A: a, B: b, R: r})
			}
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		return abs(strong[i].R) > abs(strong[j].R)
	})
	return strong
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// RiskScore is the single weighted composite summarizing all dimension
// scores for one sample.
type RiskScore struct {
	Score           float64  `json:"score"` // always within [0,1]
	Level           Level    `json:"level"`
	TopContributors []string `json:"topContributors"` // at most 3, descending weight*score
	Interpretation  string   `json:"interpretation"`
}

// Pattern is a named rule-based co-occurrence of elevated scores across
// dimensions.
type Pattern struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	Severity       Level    `json:"severity"`
	Dimensions     []string `json:"dimensionsInvolved"`
	Recommendation string   `json:"recommendation"`
}

// CrossDimensionalReport composes risk scoring, pattern detection and,
// when enough samples exist, the correlation matrix.
type CrossDimensionalReport struct {
	Risk         RiskScore          `json:"riskScore"`
	Patterns     []Pattern          `json:"patterns"`
	Correlations *CorrelationMatrix `json:"correlationMatrix,omitempty"`
	Summary      string             `json:"summary"`
}
