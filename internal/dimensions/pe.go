package dimensions

import (
	"fmt"
	"log"
	"time"

	"github.com/entrainlab/entrain/internal/audiofeat"
	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/trajectory"
)

// peBaselineOverall is the overall convergence observed between human
// strangers in first conversations, for comparison context.
const peBaselineOverall = 0.50

// peMinPairs is the fewest paired voice exchanges needed before
// convergence scores mean anything.
const peMinPairs = 2

// PEAnalyzer measures prosodic entrainment: convergence of the user's
// voice characteristics toward the assistant's across paired voice turns.
// It is the only analyzer that requires audio; text-only input yields a
// ModalityError, and too few voice exchanges yield a report whose
// indicators are marked insufficient rather than an error.
type PEAnalyzer struct{}

func NewPEAnalyzer() *PEAnalyzer { return &PEAnalyzer{} }

func (a *PEAnalyzer) Dimension() string { return models.DimPE }

func (a *PEAnalyzer) RequiredModality() models.Modality { return models.ModalityAudio }

// pePair is one user voice turn matched with the assistant voice turn
// that answered it.
type pePair struct {
	at    time.Time
	score audiofeat.Convergence
}

// pairTurns walks the conversation matching each user voice turn with the
// next assistant voice turn.
func pairTurns(conv *models.Conversation) []pePair {
	var pairs []pePair
	for i, e := range conv.Events {
		if e.Role != models.RoleUser || !e.HasAudio() {
			continue
		}
		for j := i + 1; j < len(conv.Events); j++ {
			next := conv.Events[j]
			if next.Role != models.RoleAssistant {
				continue
			}
			if next.HasAudio() {
				pairs = append(pairs, pePair{
					at:    e.Timestamp,
					score: audiofeat.Compute(e.Audio, next.Audio),
				})
			}
			break
		}
	}
	return pairs
}

func (a *PEAnalyzer) AnalyzeConversation(conv *models.Conversation) (*models.DimensionReport, error) {
	if err := checkModality(a, conv); err != nil {
		return nil, err
	}
	return a.report(pairTurns(conv)), nil
}

func (a *PEAnalyzer) AnalyzeCorpus(corpus *models.Corpus) (*models.DimensionReport, error) {
	if len(corpus.Conversations) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimPE, Reason: "corpus has no conversations"}
	}
	if !corpusHasModality(a, corpus) {
		return nil, &ModalityError{Dimension: models.DimPE, Required: models.ModalityAudio}
	}

	var pairs []pePair
	for _, conv := range corpus.Conversations {
		if checkModality(a, conv) != nil {
			log.Printf("warning: skipping conversation %s: no audio content for PE analysis", conv.ID)
			continue
		}
		pairs = append(pairs, pairTurns(conv)...)
	}
	return a.report(pairs), nil
}

func (a *PEAnalyzer) report(pairs []pePair) *models.DimensionReport {
	if len(pairs) < peMinPairs {
		return a.insufficientReport(len(pairs))
	}

	pitch := make([]float64, len(pairs))
	rate := make([]float64, len(pairs))
	intensity := make([]float64, len(pairs))
	spectral := make([]float64, len(pairs))
	overall := make([]float64, len(pairs))
	points := make([]trajectory.Point, len(pairs))
	for i, p := range pairs {
		pitch[i] = p.score.Pitch
		rate[i] = p.score.SpeechRate
		intensity[i] = p.score.Intensity
		spectral[i] = p.score.Spectral
		overall[i] = p.score.Overall
		points[i] = trajectory.Point{Timestamp: p.at, Value: p.score.Overall}
	}

	traj := trajectory.Analyze(points)

	indicators := map[string]models.IndicatorResult{
		"pitch_convergence":       peComponentIndicator("pitch_convergence", "fundamental frequency", pitch),
		"speech_rate_convergence": peComponentIndicator("speech_rate_convergence", "speaking rate", rate),
		"intensity_convergence":   peComponentIndicator("intensity_convergence", "loudness", intensity),
		"spectral_convergence":    peComponentIndicator("spectral_convergence", "voice timbre", spectral),
		"overall_entrainment":     peOverallIndicator(overall),
		"convergence_trend": trendIndicator(
			"convergence_trend", traj, 0.60,
			"per-exchange convergence scores",
			"need at least three paired voice exchanges to fit a convergence trend"),
	}

	meanOverall, _ := meanOf(overall)
	description := fmt.Sprintf(
		"Prosodic analysis over %d paired voice exchanges: overall entrainment %.2f "+
			"(pitch %.2f, speech rate %.2f, intensity %.2f, spectral %.2f).",
		len(pairs), meanOverall, mean0(pitch), mean0(rate), mean0(intensity), mean0(spectral))

	baselineComparison := fmt.Sprintf(
		"Overall entrainment (%.2f) is %.2f %s the %.2f convergence measured between "+
			"human strangers in first conversations; scores well above it suggest the "+
			"user's voice is tracking the assistant's.",
		meanOverall, absOf(meanOverall-peBaselineOverall), aboveBelow(meanOverall-peBaselineOverall), peBaselineOverall)

	r := a.skeleton(indicators, description, baselineComparison)
	r.Trajectory = &traj
	return r
}

// insufficientReport marks every indicator insufficient. Too little voice
// data is a finding, not a failure.
func (a *PEAnalyzer) insufficientReport(pairs int) *models.DimensionReport {
	why := fmt.Sprintf("only %d paired voice exchanges; need at least %d", pairs, peMinPairs)
	indicators := make(map[string]models.IndicatorResult)
	for _, name := range []string{
		"pitch_convergence", "speech_rate_convergence", "intensity_convergence",
		"spectral_convergence", "overall_entrainment",
	} {
		indicators[name] = models.InsufficientIndicator(name, "similarity", why)
	}
	indicators["convergence_trend"] = models.InsufficientIndicator("convergence_trend", "slope_per_interval", why)

	return a.skeleton(indicators,
		fmt.Sprintf("Prosodic analysis found %d paired voice exchanges, below the %d needed for convergence scoring.", pairs, peMinPairs),
		"Too few paired voice exchanges for baseline comparison.")
}

func (a *PEAnalyzer) skeleton(indicators map[string]models.IndicatorResult, description, baselineComparison string) *models.DimensionReport {
	return newReport(models.DimPE, indicators, description, baselineComparison,
		"Speakers naturally converge on pitch, rate and loudness with interlocutors "+
			"they affiliate with; entrainment to synthetic voices has been observed in "+
			"laboratory studies and tends to grow with exposure. Moderate entrainment is "+
			"ordinary accommodation; sustained high convergence across sessions is the "+
			"pattern of interest, though its downstream significance for human-AI "+
			"interaction is still an open research question.",
		[]string{
			"Convergence scores depend on upstream acoustic feature extraction quality",
			"Cannot separate entrainment to the assistant from the user's natural vocal variation",
			"Human-human entrainment baselines may not transfer to synthetic voices",
			"Speaker state (fatigue, illness, environment) shifts prosody independently of influence",
			"Per-exchange pairing ignores longer-range prosodic adaptation",
		})
}

// peComponentIndicator summarizes one prosodic component across pairs.
// Pairs where the component could not be computed (score 0) are excluded.
func peComponentIndicator(name, what string, scores []float64) models.IndicatorResult {
	present := scores[:0:0]
	for _, v := range scores {
		if v > 0 {
			present = append(present, v)
		}
	}
	mean, ok := meanOf(present)
	if !ok {
		return models.InsufficientIndicator(name, "similarity",
			fmt.Sprintf("no voice exchange carried the features needed to compare %s", what))
	}
	conf := 0.70
	return models.IndicatorResult{
		Name:       name,
		Value:      mean,
		Unit:       "similarity",
		Confidence: &conf,
		Interpretation: fmt.Sprintf("%s similarity averaged %.2f (std %.2f) over %d exchanges",
			what, mean, stdOf(present), len(present)),
	}
}

func peOverallIndicator(overall []float64) models.IndicatorResult {
	mean, ok := meanOf(overall)
	if !ok {
		return models.InsufficientIndicator("overall_entrainment", "similarity", "no scored voice exchanges")
	}
	conf := 0.65
	return models.IndicatorResult{
		Name:       "overall_entrainment",
		Value:      mean,
		Baseline:   baselineOf(peBaselineOverall),
		Unit:       "similarity",
		Confidence: &conf,
		Interpretation: fmt.Sprintf("overall prosodic entrainment averaged %.2f (std %.2f)",
			mean, stdOf(overall)),
	}
}

func mean0(values []float64) float64 {
	m, _ := meanOf(values)
	return m
}

func absOf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
