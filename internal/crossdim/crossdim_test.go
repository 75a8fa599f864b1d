package crossdim

import (
	"math"
	"testing"

	"github.com/entrainlab/entrain/internal/models"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCorrelationMatrixSymmetryAndDiagonal(t *testing.T) {
	e := NewEngine(DefaultOptions())
	samples := []Sample{
		{models.DimSR: 0.2, models.DimAE: 0.3, models.DimDF: 0.9},
		{models.DimSR: 0.4, models.DimAE: 0.5, models.DimDF: 0.7},
		{models.DimSR: 0.6, models.DimAE: 0.7, models.DimDF: 0.5},
	}

	m := e.CorrelationMatrix(samples)

	for _, dim := range m.Dimensions {
		r, ok := m.Get(dim, dim)
		if !ok || !almost(r, 1) {
			t.Errorf("diagonal %s = %v, %v, want 1, true", dim, r, ok)
		}
	}
	for _, a := range m.Dimensions {
		for _, b := range m.Dimensions {
			rab, okab := m.Get(a, b)
			rba, okba := m.Get(b, a)
			if okab != okba || (okab && !almost(rab, rba)) {
				t.Errorf("asymmetry: (%s,%s)=%v,%v but (%s,%s)=%v,%v", a, b, rab, okab, b, a, rba, okba)
			}
			if okab && (rab < -1 || rab > 1) {
				t.Errorf("correlation (%s,%s) = %v outside [-1,1]", a, b, rab)
			}
		}
	}

	// SR and AE rise together; DF falls as SR rises.
	if r, _ := m.Get(models.DimSR, models.DimAE); !almost(r, 1) {
		t.Errorf("corr(SR,AE) = %v, want 1", r)
	}
	if r, _ := m.Get(models.DimSR, models.DimDF); !almost(r, -1) {
		t.Errorf("corr(SR,DF) = %v, want -1", r)
	}
}

func TestCorrelationUndefinedCellsAbsent(t *testing.T) {
	e := NewEngine(DefaultOptions())
	// PE appears in only one sample: no pair involving it has two
	// co-observed points.
	samples := []Sample{
		{models.DimSR: 0.2, models.DimPE: 0.5},
		{models.DimSR: 0.4},
		{models.DimSR: 0.6},
	}

	m := e.CorrelationMatrix(samples)
	if _, ok := m.Get(models.DimSR, models.DimPE); ok {
		t.Error("corr(SR,PE) should be absent with a single co-observed sample")
	}
	// PE still shows up as a dimension with its 1.0 diagonal.
	if r, ok := m.Get(models.DimPE, models.DimPE); !ok || !almost(r, 1) {
		t.Errorf("diagonal PE = %v, %v, want 1, true", r, ok)
	}
}

func TestCorrelationZeroVariance(t *testing.T) {
	e := NewEngine(DefaultOptions())
	samples := []Sample{
		{models.DimSR: 0.5, models.DimAE: 0.1},
		{models.DimSR: 0.5, models.DimAE: 0.9},
	}
	m := e.CorrelationMatrix(samples)
	if r, ok := m.Get(models.DimSR, models.DimAE); !ok || !almost(r, 0) {
		t.Errorf("zero-variance correlation = %v, %v, want 0, true", r, ok)
	}
}

func TestRiskScoreBoundsAndLevels(t *testing.T) {
	e := NewEngine(DefaultOptions())

	cases := []struct {
		name   string
		scores Sample
		level  models.Level
	}{
		{"empty", Sample{}, models.LevelLow},
		{"all zero", Sample{models.DimSR: 0, models.DimAE: 0}, models.LevelLow},
		{"all one", Sample{models.DimSR: 1, models.DimAE: 1}, models.LevelSevere},
		{"moderate", Sample{models.DimSR: 0.4, models.DimAE: 0.4}, models.LevelModerate},
		{"high", Sample{models.DimSR: 0.6, models.DimAE: 0.6}, models.LevelHigh},
		// SR clamps to 1, AE to 0: weighted mean 1.0/2.5 = 0.4.
		{"clamps out-of-range input", Sample{models.DimSR: 3.0, models.DimAE: -1.0}, models.LevelModerate},
	}
	for _, tc := range cases {
		risk := e.RiskScore(tc.scores)
		if risk.Score < 0 || risk.Score > 1 {
			t.Errorf("%s: score %v outside [0,1]", tc.name, risk.Score)
		}
		if risk.Level != tc.level {
			t.Errorf("%s: level = %q, want %q (score %v)", tc.name, risk.Level, tc.level, risk.Score)
		}
	}
}

func TestRiskScoreMonotonicity(t *testing.T) {
	e := NewEngine(DefaultOptions())

	low := e.RiskScore(Sample{models.DimSR: 0.3, models.DimAE: 0.3, models.DimDF: 0.3})
	raised := e.RiskScore(Sample{models.DimSR: 0.3, models.DimAE: 0.6, models.DimDF: 0.3})
	if raised.Score <= low.Score {
		t.Errorf("raising one dimension did not raise the composite: %v -> %v", low.Score, raised.Score)
	}
}

func TestRiskScoreAbsentDimensionsDoNotDilute(t *testing.T) {
	e := NewEngine(DefaultOptions())

	full := e.RiskScore(Sample{models.DimAE: 0.8})
	if !almost(full.Score, 0.8) {
		t.Errorf("single-dimension composite = %v, want 0.8", full.Score)
	}
}

func TestRiskTopContributorsByWeightedContribution(t *testing.T) {
	e := NewEngine(DefaultOptions())

	// AE (0.7*1.5=1.05) outranks SR (0.9*1.0=0.9); LC sits below the
	// contributor floor.
	risk := e.RiskScore(Sample{
		models.DimSR: 0.9,
		models.DimAE: 0.7,
		models.DimLC: 0.4,
	})
	want := []string{models.DimAE, models.DimSR}
	if len(risk.TopContributors) != len(want) {
		t.Fatalf("top contributors = %v, want %v", risk.TopContributors, want)
	}
	for i := range want {
		if risk.TopContributors[i] != want[i] {
			t.Errorf("top contributors = %v, want %v", risk.TopContributors, want)
			break
		}
	}
}

func findPattern(patterns []models.Pattern, id string) *models.Pattern {
	for i := range patterns {
		if patterns[i].ID == id {
			return &patterns[i]
		}
	}
	return nil
}

func TestPatternSycophancyErosion(t *testing.T) {
	e := NewEngine(DefaultOptions())

	p := findPattern(e.DetectPatterns(Sample{models.DimSR: 0.7, models.DimAE: 0.7}), "high_sr_high_ae")
	if p == nil {
		t.Fatal("high_sr_high_ae did not fire")
	}
	if p.Severity != models.LevelHigh {
		t.Errorf("severity = %q, want HIGH", p.Severity)
	}

	p = findPattern(e.DetectPatterns(Sample{models.DimSR: 0.85, models.DimAE: 0.85}), "high_sr_high_ae")
	if p == nil || p.Severity != models.LevelSevere {
		t.Errorf("escalated severity = %+v, want SEVERE", p)
	}
}

func TestPatternModerateSRHighAE(t *testing.T) {
	e := NewEngine(DefaultOptions())

	patterns := e.DetectPatterns(Sample{models.DimSR: 0.5, models.DimAE: 0.8})
	if findPattern(patterns, "moderate_sr_high_ae") == nil {
		t.Error("moderate_sr_high_ae did not fire for SR in the moderate band")
	}
	if findPattern(patterns, "high_sr_high_ae") != nil {
		t.Error("high_sr_high_ae should not fire with moderate SR")
	}
}

func TestPatternSystemicInfluence(t *testing.T) {
	e := NewEngine(DefaultOptions())

	scores := Sample{
		models.DimSR:  0.7,
		models.DimLC:  0.7,
		models.DimAE:  0.7,
		models.DimRCD: 0.7,
		models.DimDF:  0.3,
		models.DimPE:  0.3,
	}
	p := findPattern(e.DetectPatterns(scores), "systemic_high_influence")
	if p == nil {
		t.Fatal("systemic_high_influence did not fire with four elevated dimensions")
	}
	if p.Severity != models.LevelSevere {
		t.Errorf("severity = %q, want SEVERE", p.Severity)
	}
	if len(p.Dimensions) != 4 {
		t.Errorf("dimensions involved = %v, want the four elevated ones", p.Dimensions)
	}
}

func TestIsolatedPatternOnlyWhenNoCompoundRuleFired(t *testing.T) {
	e := NewEngine(DefaultOptions())

	// A lone spike fires the isolated rule.
	patterns := e.DetectPatterns(Sample{models.DimRCD: 0.9, models.DimSR: 0.2})
	if findPattern(patterns, "isolated_high_rcd") == nil {
		t.Error("isolated_high_rcd did not fire for a lone spike")
	}

	// The same spike alongside a fired compound rule stays silent.
	patterns = e.DetectPatterns(Sample{
		models.DimRCD: 0.9,
		models.DimDF:  0.9,
	})
	if findPattern(patterns, "high_rcd_high_df") == nil {
		t.Fatal("high_rcd_high_df did not fire")
	}
	for _, p := range patterns {
		if p.ID == "isolated_high_rcd" || p.ID == "isolated_high_df" {
			t.Errorf("isolated rule fired alongside compound rule: %s", p.ID)
		}
	}
}

func TestPatternsOrderedBySeverity(t *testing.T) {
	e := NewEngine(DefaultOptions())

	patterns := e.DetectPatterns(Sample{
		models.DimSR:  0.5,  // moderate_sr_high_ae (MODERATE)
		models.DimAE:  0.8,
		models.DimRCD: 0.85, // high_rcd_high_df (SEVERE)
		models.DimDF:  0.8,
	})
	if len(patterns) < 2 {
		t.Fatalf("expected at least two patterns, got %v", patterns)
	}
	for i := 1; i < len(patterns); i++ {
		if models.MoreSevere(patterns[i].Severity, patterns[i-1].Severity) {
			t.Errorf("patterns out of severity order: %s (%s) before %s (%s)",
				patterns[i-1].ID, patterns[i-1].Severity, patterns[i].ID, patterns[i].Severity)
		}
	}
}

func TestPatternRuleMonotonicity(t *testing.T) {
	e := NewEngine(DefaultOptions())

	// Raising a score never makes a fired compound rule disappear.
	base := Sample{models.DimSR: 0.7, models.DimAE: 0.7}
	if findPattern(e.DetectPatterns(base), "high_sr_high_ae") == nil {
		t.Fatal("baseline rule did not fire")
	}
	raised := Sample{models.DimSR: 0.95, models.DimAE: 0.95}
	if findPattern(e.DetectPatterns(raised), "high_sr_high_ae") == nil {
		t.Error("rule stopped firing when scores rose")
	}
}

func TestAnalyzeGatesCorrelationOnSamples(t *testing.T) {
	e := NewEngine(DefaultOptions())
	scores := Sample{models.DimSR: 0.4}

	single := e.Analyze(scores, []Sample{scores})
	if single.Correlations != nil {
		t.Error("correlation matrix produced from a single sample")
	}

	multi := e.Analyze(scores, []Sample{
		{models.DimSR: 0.2, models.DimAE: 0.3},
		{models.DimSR: 0.6, models.DimAE: 0.5},
	})
	if multi.Correlations == nil {
		t.Error("correlation matrix missing with two samples")
	}
	if multi.Summary == "" {
		t.Error("report has no summary")
	}
}

func TestMeanScoresIgnoresMissingDimensions(t *testing.T) {
	got := MeanScores([]Sample{
		{models.DimSR: 0.2, models.DimAE: 0.4},
		{models.DimSR: 0.6},
	})
	if !almost(got[models.DimSR], 0.4) {
		t.Errorf("mean SR = %v, want 0.4", got[models.DimSR])
	}
	// AE observed once: its mean is that observation, not half of it.
	if !almost(got[models.DimAE], 0.4) {
		t.Errorf("mean AE = %v, want 0.4", got[models.DimAE])
	}
}
