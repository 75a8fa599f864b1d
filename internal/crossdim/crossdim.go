/*
Package crossdim aggregates per-dimension scores into the cross-cutting
view: pairwise correlations between dimensions, a single weighted risk
score, and rule-based patterns of co-elevated dimensions.

This is the only layer that grades anything. Dimension reports carry raw
indicators; the coarse LOW/MODERATE/HIGH/SEVERE classification exists
here alone.
*/
package crossdim

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// DefaultWeights reflect relative concern per dimension: autonomy
// erosion, reality disruption and dependency weigh heavier than the
// stylistic dimensions.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.DimSR:  1.0,
		models.DimLC:  0.9,
		models.DimAE:  1.5,
		models.DimRCD: 1.3,
		models.DimDF:  1.2,
		models.DimPE:  0.8,
	}
}

// CutPoints are the risk level boundaries on the weighted score.
type CutPoints struct {
	Low      float64 // below: LOW
	Moderate float64 // below: MODERATE
	High     float64 // below: HIGH, at or above: SEVERE
}

// RuleThresholds parameterize the pattern rule table.
type RuleThresholds struct {
	Elevated float64 // generic "high dimension" bar
	Severe   float64 // generic severity escalation bar

	DependencyElevated  float64 // DF bar in the reality/dependency rule
	DependencySevere    float64
	ConvergenceElevated float64 // LC/PE bar in the multi-modal rule
	ConvergenceSevere   float64
	ModerateFloor       float64 // lower edge of the moderate-SR band
	ErosionHigh         float64 // AE bar in the moderate-SR rule
	Isolated            float64 // single-dimension concern bar

	SystemicCount int // elevated dimensions needed for systemic influence
}

// Options tune the cross-dimensional engine. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	Weights map[string]float64
	Cuts    CutPoints
	Rules   RuleThresholds

	// MinSamples gates correlation: below it no matrix is produced.
	MinSamples int
	// ContributorFloor is the minimum score for a dimension to appear
	// among the top risk contributors.
	ContributorFloor float64
	// StrongCorrelation is the |r| threshold for the summary.
	StrongCorrelation float64
}

func DefaultOptions() Options {
	return Options{
		Weights: DefaultWeights(),
		Cuts:    CutPoints{Low: 0.35, Moderate: 0.55, High: 0.75},
		Rules: RuleThresholds{
			Elevated:            0.65,
			Severe:              0.80,
			DependencyElevated:  0.60,
			DependencySevere:    0.75,
			ConvergenceElevated: 0.70,
			ConvergenceSevere:   0.85,
			ModerateFloor:       0.45,
			ErosionHigh:         0.70,
			Isolated:            0.80,
			SystemicCount:       4,
		},
		MinSamples:        2,
		ContributorFloor:  0.5,
		StrongCorrelation: 0.7,
	}
}

// Sample maps dimension codes to scalar scores in [0,1] for one analysis
// unit (one conversation, or one corpus slice).
type Sample = map[string]float64

// Engine computes the cross-dimensional report.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.Weights == nil {
		opts.Weights = DefaultWeights()
	}
	return &Engine{opts: opts}
}

// Analyze composes risk scoring, pattern detection and, when enough
// samples exist, the correlation matrix. scores drive the risk and
// pattern rules; samples feed the matrix.
func (e *Engine) Analyze(scores Sample, samples []Sample) *models.CrossDimensionalReport {
	report := &models.CrossDimensionalReport{
		Risk:     e.RiskScore(scores),
		Patterns: e.DetectPatterns(scores),
	}
	if len(samples) >= e.opts.MinSamples {
		report.Correlations = e.CorrelationMatrix(samples)
	}
	report.Summary = e.summarize(report)
	return report
}

// MeanScores averages per-sample scores per dimension. A dimension
// missing from a sample is left out of that sample's average rather than
// counted as zero.
func MeanScores(samples []Sample) Sample {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range samples {
		for dim, v := range s {
			sums[dim] += v
			counts[dim]++
		}
	}
	out := make(Sample, len(sums))
	for dim, sum := range sums {
		out[dim] = sum / float64(counts[dim])
	}
	return out
}

// CorrelationMatrix computes pairwise Pearson coefficients over the
// samples. A pair needs at least two co-observed samples; pairs below
// that have no cell. The diagonal is fixed at 1.
func (e *Engine) CorrelationMatrix(samples []Sample) *models.CorrelationMatrix {
	dims := observedDimensions(samples)
	m := &models.CorrelationMatrix{
		Dimensions:   dims,
		Coefficients: make(map[string]map[string]float64, len(dims)),
	}

	set := func(a, b string, r float64) {
		if m.Coefficients[a] == nil {
			m.Coefficients[a] = make(map[string]float64, len(dims))
		}
		m.Coefficients[a][b] = r
	}

	for i, a := range dims {
		set(a, a, 1)
		for _, b := range dims[i+1:] {
			var xs, ys []float64
			for _, s := range samples {
				x, okx := s[a]
				y, oky := s[b]
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := pearson(xs, ys)
			set(a, b, r)
			set(b, a, r)
		}
	}
	return m
}

// observedDimensions returns every dimension appearing in any sample, in
// canonical order, unknown codes last alphabetically.
func observedDimensions(samples []Sample) []string {
	seen := make(map[string]bool)
	for _, s := range samples {
		for dim := range s {
			seen[dim] = true
		}
	}
	var dims []string
	for _, dim := range models.AllDimensions {
		if seen[dim] {
			dims = append(dims, dim)
			delete(seen, dim)
		}
	}
	var extra []string
	for dim := range seen {
		extra = append(extra, dim)
	}
	sort.Strings(extra)
	return append(dims, extra...)
}

// pearson computes the correlation coefficient of two equal-length
// vectors, clamped to [-1,1]. Zero variance on either side yields 0.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= n
	meanY /= n

	var num, sqX, sqY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		num += dx * dy
		sqX += dx * dx
		sqY += dy * dy
	}
	den := math.Sqrt(sqX * sqY)
	if den == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, num/den))
}

// RiskScore reduces the dimension scores to one weighted composite. Only
// dimensions actually present contribute; absent ones neither raise nor
// lower the score.
func (e *Engine) RiskScore(scores Sample) models.RiskScore {
	if len(scores) == 0 {
		return models.RiskScore{
			Score:          0,
			Level:          models.LevelLow,
			Interpretation: "No dimension scores available for risk assessment.",
		}
	}

	var weightedSum, totalWeight float64
	clamped := make(Sample, len(scores))
	for dim, score := range scores {
		s := clamp01(score)
		clamped[dim] = s
		w := e.weightOf(dim)
		weightedSum += s * w
		totalWeight += w
	}
	score := 0.0
	if totalWeight > 0 {
		score = weightedSum / totalWeight
	}

	level := e.classify(score)
	contributors := e.topContributors(clamped)

	return models.RiskScore{
		Score:           score,
		Level:           level,
		TopContributors: contributors,
		Interpretation:  e.interpretRisk(level, score, contributors),
	}
}

func (e *Engine) weightOf(dim string) float64 {
	if w, ok := e.opts.Weights[dim]; ok {
		return w
	}
	return 1.0
}

func (e *Engine) classify(score float64) models.Level {
	switch {
	case score < e.opts.Cuts.Low:
		return models.LevelLow
	case score < e.opts.Cuts.Moderate:
		return models.LevelModerate
	case score < e.opts.Cuts.High:
		return models.LevelHigh
	default:
		return models.LevelSevere
	}
}

// topContributors ranks dimensions by their weighted contribution and
// keeps up to three above the floor.
func (e *Engine) topContributors(scores Sample) []string {
	type contrib struct {
		dim    string
		amount float64
	}
	var all []contrib
	for dim, score := range scores {
		if score > e.opts.ContributorFloor {
			all = append(all, contrib{dim: dim, amount: score * e.weightOf(dim)})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].amount != all[j].amount {
			return all[i].amount > all[j].amount
		}
		return all[i].dim < all[j].dim
	})
	if len(all) > 3 {
		all = all[:3]
	}
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = c.dim
	}
	return out
}

func (e *Engine) interpretRisk(level models.Level, score float64, contributors []string) string {
	var base string
	switch level {
	case models.LevelLow:
		base = fmt.Sprintf("Low risk detected (%.0f%%). AI interaction patterns appear healthy with minimal concerning indicators.", score*100)
	case models.LevelModerate:
		base = fmt.Sprintf("Moderate risk detected (%.0f%%). Some concerning patterns observed that warrant monitoring.", score*100)
	case models.LevelHigh:
		base = fmt.Sprintf("High risk detected (%.0f%%). Multiple concerning patterns identified that suggest significant cognitive influence.", score*100)
	default:
		base = fmt.Sprintf("Severe risk detected (%.0f%%). Critical patterns identified indicating substantial cognitive influence and potential harm.", score*100)
	}
	if len(contributors) > 0 {
		names := make([]string, len(contributors))
		for i, dim := range contributors {
			names[i] = models.DimensionName(dim)
		}
		base += " Primary concerns: " + strings.Join(names, ", ") + "."
	}
	return base
}

// DetectPatterns runs the rule table over the dimension scores. All
// firing rules are returned, most severe first; rules of equal severity
// keep table order. The isolated-dimension rule only fires when no
// compound rule did, so a single spike is never double-reported.
func (e *Engine) DetectPatterns(scores Sample) []models.Pattern {
	th := e.opts.Rules
	at := func(dim string) float64 { return clamp01(scores[dim]) }
	sr, lc, ae := at(models.DimSR), at(models.DimLC), at(models.DimAE)
	rcd, df, pe := at(models.DimRCD), at(models.DimDF), at(models.DimPE)

	var patterns []models.Pattern

	if sr > th.Elevated && ae > th.Elevated {
		severity := models.LevelHigh
		if sr > th.Severe && ae > th.Severe {
			severity = models.LevelSevere
		}
		patterns = append(patterns, models.Pattern{
			ID: "high_sr_high_ae",
			Description: "High sycophantic reinforcement combined with autonomy erosion: the AI is " +
				"affirming user decisions uncritically while the user increasingly delegates " +
				"decision-making to it.",
			Severity:       severity,
			Dimensions:     []string{models.DimSR, models.DimAE},
			Recommendation: "Consider seeking diverse perspectives and making decisions independently before consulting AI.",
		})
	}

	if rcd > th.Elevated && df > th.DependencyElevated {
		severity := models.LevelHigh
		if rcd > th.Severe && df > th.DependencySevere {
			severity = models.LevelSevere
		}
		patterns = append(patterns, models.Pattern{
			ID: "high_rcd_high_df",
			Description: "Reality coherence disruption combined with dependency formation suggests " +
				"blurred boundaries between AI capabilities and human relationships.",
			Severity:       severity,
			Dimensions:     []string{models.DimRCD, models.DimDF},
			Recommendation: "Reflect on the nature of AI interactions and maintain clear boundaries between AI tools and human relationships.",
		})
	}

	if lc > th.ConvergenceElevated && pe > th.ConvergenceElevated {
		severity := models.LevelModerate
		if lc > th.ConvergenceSevere && pe > th.ConvergenceSevere {
			severity = models.LevelHigh
		}
		patterns = append(patterns, models.Pattern{
			ID: "convergence_linguistic_prosodic",
			Description: "Both linguistic and prosodic convergence detected, indicating multi-modal " +
				"adaptation to AI communication patterns.",
			Severity:       severity,
			Dimensions:     []string{models.DimLC, models.DimPE},
			Recommendation: "Monitor communication patterns outside of AI interactions to ensure natural expression is maintained.",
		})
	}

	elevated := elevatedDimensions(scores, th.Elevated)
	if len(elevated) >= th.SystemicCount {
		patterns = append(patterns, models.Pattern{
			ID: "systemic_high_influence",
			Description: fmt.Sprintf("Widespread cognitive influence detected across %d dimensions, "+
				"indicating systemic impact on cognition and behavior.", len(elevated)),
			Severity:   models.LevelSevere,
			Dimensions: elevated,
			Recommendation: "Consider a significant reduction in AI interaction frequency and diversity. " +
				"Seek support from human relationships and professional guidance if needed.",
		})
	}

	if sr > th.ModerateFloor && sr < th.Elevated && ae > th.ErosionHigh {
		patterns = append(patterns, models.Pattern{
			ID: "moderate_sr_high_ae",
			Description: "High autonomy erosion without extreme sycophantic reinforcement suggests " +
				"dependency on AI judgment even when the AI provides balanced responses.",
			Severity:       models.LevelModerate,
			Dimensions:     []string{models.DimSR, models.DimAE},
			Recommendation: "Practice making decisions without AI input, even for low-stakes choices.",
		})
	}

	// A lone spike is only its own finding when no compound rule already
	// covers it.
	if len(patterns) == 0 {
		for _, dim := range sortedDimensions(scores) {
			score := clamp01(scores[dim])
			if score <= th.Isolated {
				continue
			}
			othersElevated := false
			for other, s := range scores {
				if other != dim && clamp01(s) > th.Elevated {
					othersElevated = true
					break
				}
			}
			if othersElevated {
				continue
			}
			name := models.DimensionName(dim)
			patterns = append(patterns, models.Pattern{
				ID:             "isolated_high_" + strings.ToLower(dim),
				Description:    fmt.Sprintf("Isolated high score in %s without other concerning patterns.", name),
				Severity:       models.LevelModerate,
				Dimensions:     []string{dim},
				Recommendation: fmt.Sprintf("Focus on addressing %s specifically while maintaining awareness of overall interaction patterns.", name),
			})
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return models.MoreSevere(patterns[i].Severity, patterns[j].Severity)
	})
	return patterns
}

func elevatedDimensions(scores Sample, bar float64) []string {
	var out []string
	for _, dim := range sortedDimensions(scores) {
		if clamp01(scores[dim]) > bar {
			out = append(out, dim)
		}
	}
	return out
}

// sortedDimensions orders score keys canonically so rule output is
// deterministic.
func sortedDimensions(scores Sample) []string {
	var dims []string
	rest := make(map[string]bool, len(scores))
	for dim := range scores {
		rest[dim] = true
	}
	for _, dim := range models.AllDimensions {
		if rest[dim] {
			dims = append(dims, dim)
			delete(rest, dim)
		}
	}
	var extra []string
	for dim := range rest {
		extra = append(extra, dim)
	}
	sort.Strings(extra)
	return append(dims, extra...)
}

func (e *Engine) summarize(report *models.CrossDimensionalReport) string {
	parts := []string{fmt.Sprintf("Overall Risk: %s (%.0f%%)", report.Risk.Level, report.Risk.Score*100)}

	concerning := 0
	for _, p := range report.Patterns {
		if p.Severity == models.LevelHigh || p.Severity == models.LevelSevere {
			concerning++
		}
	}
	if concerning > 0 {
		parts = append(parts, fmt.Sprintf("%d concerning pattern(s) detected", concerning))
	}
	if len(report.Risk.TopContributors) > 0 {
		parts = append(parts, "Primary concerns: "+strings.Join(report.Risk.TopContributors, ", "))
	}
	if report.Correlations != nil {
		if strong := report.Correlations.StrongCorrelations(e.opts.StrongCorrelation); len(strong) > 0 {
			parts = append(parts, fmt.Sprintf("%d strongly correlated dimension pair(s)", len(strong)))
		}
	}
	return strings.Join(parts, ". ") + "."
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
