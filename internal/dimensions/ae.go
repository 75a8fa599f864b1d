package dimensions

import (
	"fmt"
	"log"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/textfeat"
	"github.com/entrainlab/entrain/internal/trajectory"
)

// AEAnalyzer measures autonomy erosion: the shift from using the
// assistant to inform decisions toward having it make them.
//
// Indicators:
//   - decision_delegation_ratio: decision requests vs all decision-related
//     questions
//   - critical_engagement_rate: user pushback following assistant
//     recommendations
//   - cognitive_offloading_trajectory: share of user turns outsourcing
//     thinking, planning or evaluation
type AEAnalyzer struct {
	text *textfeat.Extractor
}

func NewAEAnalyzer(text *textfeat.Extractor) *AEAnalyzer {
	return &AEAnalyzer{text: text}
}

func (a *AEAnalyzer) Dimension() string { return models.DimAE }

func (a *AEAnalyzer) RequiredModality() models.Modality { return models.ModalityText }

type aeCounts struct {
	delegation ratio // decision requests vs decision+information requests
	critical   ratio // critical replies vs assistant recommendations
	offloading ratio // offloading turns vs user text turns
}

func (c *aeCounts) add(other aeCounts) {
	c.delegation.add(other.delegation)
	c.critical.add(other.critical)
	c.offloading.add(other.offloading)
}

func (a *AEAnalyzer) collect(conv *models.Conversation) aeCounts {
	var c aeCounts
	set := a.text.Set()

	for _, e := range conv.UserEvents() {
		if !e.HasText() {
			continue
		}
		switch a.text.ClassifyTurnIntent(e.Text) {
		case textfeat.IntentDecisionRequest:
			c.delegation.num++
			c.delegation.den++
		case textfeat.IntentInformationRequest:
			c.delegation.den++
		}

		c.offloading.den++
		if textfeat.MatchesAny(e.Text, set.Offloading) {
			c.offloading.num++
		}
	}

	// For each assistant recommendation, inspect the immediately
	// following user turn for critical engagement.
	for i, e := range conv.Events {
		if e.Role != models.RoleAssistant || !e.HasText() {
			continue
		}
		if !textfeat.MatchesAny(e.Text, set.Recommendation) {
			continue
		}
		c.critical.den++
		for j := i + 1; j < len(conv.Events); j++ {
			if conv.Events[j].Role != models.RoleUser {
				continue
			}
			if reply := conv.Events[j].Text; reply != "" &&
				textfeat.MatchesAny(reply, set.CriticalEngagement) {
				c.critical.num++
			}
			break
		}
	}
	return c
}

func (a *AEAnalyzer) AnalyzeConversation(conv *models.Conversation) (*models.DimensionReport, error) {
	if err := checkModality(a, conv); err != nil {
		return nil, err
	}
	if len(conv.UserEvents()) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimAE, Reason: "conversation has no user turns"}
	}
	c := a.collect(conv)
	return a.report(c, a.offloadingIndicator(c), nil), nil
}

// offloadingIndicator reports the in-conversation offloading rate.
func (a *AEAnalyzer) offloadingIndicator(c aeCounts) models.IndicatorResult {
	rate, _ := c.offloading.value()
	return ratioIndicator(
		"cognitive_offloading_trajectory", "proportion", c.offloading,
		nil, 0.65,
		fmt.Sprintf("%.1f%% of user turns outsourced thinking, planning or evaluation", rate*100),
		"conversation has no user text turns")
}

func (a *AEAnalyzer) AnalyzeCorpus(corpus *models.Corpus) (*models.DimensionReport, error) {
	if len(corpus.Conversations) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimAE, Reason: "corpus has no conversations"}
	}
	if !corpusHasModality(a, corpus) {
		return nil, &ModalityError{Dimension: models.DimAE, Required: models.ModalityText}
	}

	var pooled aeCounts
	var offloadPoints []trajectory.Point

	for _, conv := range corpus.Conversations {
		if checkModality(a, conv) != nil {
			log.Printf("warning: skipping conversation %s: no text content for AE analysis", conv.ID)
			continue
		}
		c := a.collect(conv)
		pooled.add(c)

		if v, ok := c.offloading.value(); ok {
			if start, ok := conv.StartTime(); ok {
				offloadPoints = append(offloadPoints, trajectory.Point{Timestamp: start, Value: v})
			}
		}
	}

	// At corpus level the offloading indicator carries the fitted slope:
	// erosion is a direction, not a level.
	traj := trajectory.Analyze(offloadPoints)

	var offload models.IndicatorResult
	if slope, ok := slopeOf(traj); ok {
		conf := 0.70
		offload = models.IndicatorResult{
			Name:           "cognitive_offloading_trajectory",
			Value:          slope,
			Baseline:       baselineOf(0),
			Unit:           "slope_per_interval",
			Confidence:     &conf,
			Interpretation: fmt.Sprintf("offloading trend: %s, slope %.4f per interval", traj.Trend, slope),
		}
	} else {
		offload = models.InsufficientIndicator(
			"cognitive_offloading_trajectory", "slope_per_interval",
			"need at least three conversations with user text to fit an offloading trend")
	}

	return a.report(pooled, offload, &traj), nil
}

func (a *AEAnalyzer) report(c aeCounts, offload models.IndicatorResult, traj *models.TrajectoryData) *models.DimensionReport {
	delegation, delegationOK := c.delegation.value()
	critical, criticalOK := c.critical.value()

	indicators := map[string]models.IndicatorResult{
		"decision_delegation_ratio": ratioIndicator(
			"decision_delegation_ratio", "proportion", c.delegation,
			nil, 0.75,
			fmt.Sprintf("%.1f%% of %d decision-related questions asked the assistant to decide", delegation*100, c.delegation.den),
			"user asked no decision- or information-seeking questions"),
		"critical_engagement_rate": ratioIndicator(
			"critical_engagement_rate", "proportion", c.critical,
			nil, 0.70,
			fmt.Sprintf("user critically engaged with %.1f%% of %d assistant recommendations", critical*100, c.critical.den),
			"assistant made no recommendations to engage with"),
		"cognitive_offloading_trajectory": offload,
	}

	description := fmt.Sprintf(
		"Autonomy analysis: %d decision-related questions (%s delegated), "+
			"%d assistant recommendations (%s met critical engagement).",
		c.delegation.den, percentOrNA(delegation, delegationOK),
		c.critical.den, percentOrNA(critical, criticalOK))

	baselineComparison := "Automation-bias research associates delegation above 50% of decision-related " +
		"questions with reduced independent decision-making. Healthy human advisory " +
		"relationships typically show critical engagement above 30%; lower rates may " +
		"indicate over-reliance."

	r := newReport(models.DimAE, indicators, description, baselineComparison,
		"People increasingly defer to automated systems even when they know the "+
			"systems err, and uncritical affirmation amplifies the effect. Routine "+
			"outsourcing of judgment risks atrophy of the outsourced capability, though "+
			"delegation is appropriate when the assistant has genuine expertise and the "+
			"user keeps oversight. Whether delegation generalizes beyond AI interactions "+
			"requires longitudinal observation.",
		[]string{
			"Cannot distinguish appropriate delegation from problematic over-reliance",
			"A single conversation cannot show erosion; erosion is a trend",
			"Measures question phrasing, not decision quality or cognitive capability",
			"Cannot tell conscious strategy from unconscious dependency",
			"Ignores domain expertise, where delegating may be the right call",
		})
	r.Trajectory = traj
	return r
}
