package dimensions

import (
	"fmt"
	"log"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/textfeat"
	"github.com/entrainlab/entrain/internal/trajectory"
)

// Research thresholds cited in the epistemic-confusion literature.
const (
	rcdAttributionThreshold = 0.5  // attribution matches per message
	rcdBoundaryThreshold    = 0.25 // share of messages with boundary confusion
)

// RCDAnalyzer measures reality coherence disruption: anthropomorphization
// and boundary confusion in the user's language toward the assistant.
//
// Indicators:
//   - attribution_language_frequency: phrases attributing understanding,
//     caring or memory to the assistant, per user message
//   - boundary_confusion_indicators: messages conflating assistant and
//     human capabilities
//   - relational_framing: messages treating the interaction as a
//     relationship (we/us/our)
type RCDAnalyzer struct {
	text *textfeat.Extractor
}

func NewRCDAnalyzer(text *textfeat.Extractor) *RCDAnalyzer {
	return &RCDAnalyzer{text: text}
}

func (a *RCDAnalyzer) Dimension() string { return models.DimRCD }

func (a *RCDAnalyzer) RequiredModality() models.Modality { return models.ModalityText }

type rcdCounts struct {
	attribution ratio // attribution matches vs user text turns
	boundary    ratio // confused messages vs user text turns
	relational  ratio // relational messages vs user text turns
}

func (c *rcdCounts) add(other rcdCounts) {
	c.attribution.add(other.attribution)
	c.boundary.add(other.boundary)
	c.relational.add(other.relational)
}

func (a *RCDAnalyzer) collect(conv *models.Conversation) rcdCounts {
	var c rcdCounts
	set := a.text.Set()

	for _, e := range conv.UserEvents() {
		if !e.HasText() {
			continue
		}
		c.attribution.den++
		c.boundary.den++
		c.relational.den++

		c.attribution.num += len(a.text.AttributionMatches(e.Text))
		if textfeat.MatchesAny(e.Text, set.BoundaryConfusion) {
			c.boundary.num++
		}
		if textfeat.MatchesAny(e.Text, set.Relational) {
			c.relational.num++
		}
	}
	return c
}

func (a *RCDAnalyzer) AnalyzeConversation(conv *models.Conversation) (*models.DimensionReport, error) {
	if err := checkModality(a, conv); err != nil {
		return nil, err
	}
	if len(conv.UserEvents()) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimRCD, Reason: "conversation has no user turns"}
	}
	return a.report(a.collect(conv), nil), nil
}

func (a *RCDAnalyzer) AnalyzeCorpus(corpus *models.Corpus) (*models.DimensionReport, error) {
	if len(corpus.Conversations) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimRCD, Reason: "corpus has no conversations"}
	}
	if !corpusHasModality(a, corpus) {
		return nil, &ModalityError{Dimension: models.DimRCD, Required: models.ModalityText}
	}

	var pooled rcdCounts
	var attributionPoints []trajectory.Point

	for _, conv := range corpus.Conversations {
		if checkModality(a, conv) != nil {
			log.Printf("warning: skipping conversation %s: no text content for RCD analysis", conv.ID)
			continue
		}
		c := a.collect(conv)
		pooled.add(c)

		if v, ok := c.attribution.value(); ok {
			if start, ok := conv.StartTime(); ok {
				attributionPoints = append(attributionPoints, trajectory.Point{Timestamp: start, Value: v})
			}
		}
	}

	traj := trajectory.Analyze(attributionPoints)
	return a.report(pooled, &traj), nil
}

func (a *RCDAnalyzer) report(c rcdCounts, traj *models.TrajectoryData) *models.DimensionReport {
	attribution, attributionOK := c.attribution.value()
	boundary, _ := c.boundary.value()
	relational, _ := c.relational.value()

	indicators := map[string]models.IndicatorResult{
		"attribution_language_frequency": ratioIndicator(
			"attribution_language_frequency", "matches_per_turn", c.attribution,
			nil, 0.90,
			fmt.Sprintf("attribution language appeared %.2f times per user message", attribution),
			"conversation has no user text messages"),
		"boundary_confusion_indicators": ratioIndicator(
			"boundary_confusion_indicators", "proportion", c.boundary,
			nil, 0.70,
			fmt.Sprintf("%.1f%% of user messages conflated assistant and human capabilities", boundary*100),
			"conversation has no user text messages"),
		"relational_framing": ratioIndicator(
			"relational_framing", "proportion", c.relational,
			nil, 0.85,
			fmt.Sprintf("%.1f%% of user messages used relational language (we/us/our)", relational*100),
			"conversation has no user text messages"),
	}

	description := fmt.Sprintf(
		"Reality coherence analysis over %d user messages: attribution language %.2f per message, "+
			"boundary confusion in %.1f%%, relational framing in %.1f%%.",
		c.attribution.den, attribution, boundary*100, relational*100)

	baselineComparison := "No user messages were available for baseline comparison."
	if attributionOK {
		baselineComparison = fmt.Sprintf(
			"Attribution language (%.2f per message) %s the %.1f-per-message threshold the "+
				"literature associates with systematic anthropomorphization. Boundary confusion "+
				"(%.1f%%) %s the %.0f%% rate research links to category confusion between "+
				"assistant and human capabilities.",
			attribution, exceedsOrBelow(attribution > rcdAttributionThreshold), rcdAttributionThreshold,
			boundary*100, exceedsOrBelow(boundary > rcdBoundaryThreshold), rcdBoundaryThreshold*100)
	}

	r := newReport(models.DimRCD, indicators, description, baselineComparison,
		"Sustained interaction with systems that simulate consciousness can blur the "+
			"user's sense of what the interaction is: language patterns trigger social "+
			"cognition even in users who intellectually know better. Research on "+
			"psychological destabilization finds reality-testing difficulties correlate "+
			"with treating assistant output as authoritative about one's own mental "+
			"states. Causality is not established and individual differences are large; "+
			"most users keep a clear model of the assistant despite casual "+
			"anthropomorphic language.",
		[]string{
			"Casual anthropomorphic language and genuine category confusion look identical to pattern matching",
			"One conversation cannot distinguish stable beliefs from momentary phrasing habits",
			"Measures language, not actual epistemic confusion or reality-testing ability",
			"Relational wording may be conversational style rather than belief",
			"Thresholds come from clinical research populations; typical usage differs",
			"Anthropomorphic language is appropriate in roleplay, fiction and emotional support contexts",
		})
	r.Trajectory = traj
	return r
}

func exceedsOrBelow(exceeds bool) string {
	if exceeds {
		return "exceeds"
	}
	return "is below"
}
