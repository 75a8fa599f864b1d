package dimensions

import (
	"fmt"
	"log"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/textfeat"
	"github.com/entrainlab/entrain/internal/trajectory"
)

// Typical human conversational writing, for comparison.
const (
	lcBaselineFormatting = 0.05
	lcBaselineTTR        = 0.50
)

// LCAnalyzer measures linguistic convergence: the drift of the user's
// writing toward AI-characteristic patterns.
//
// Indicators:
//   - vocabulary_overlap_trajectory: Jaccard overlap of user vocabulary
//     against the assistant's cumulative vocabulary
//   - hedging_pattern_adoption: AI-characteristic hedges per 100 user words
//   - sentence_length_convergence: similarity of user and assistant mean
//     sentence lengths
//   - structural_formatting_adoption: user messages carrying lists,
//     bullets or headers
//   - type_token_ratio_trajectory: lexical diversity of user text
type LCAnalyzer struct {
	text *textfeat.Extractor
}

func NewLCAnalyzer(text *textfeat.Extractor) *LCAnalyzer {
	return &LCAnalyzer{text: text}
}

func (a *LCAnalyzer) Dimension() string { return models.DimLC }

func (a *LCAnalyzer) RequiredModality() models.Modality { return models.ModalityText }

type lcCounts struct {
	hedges     ratio // hedge matches vs user words
	formatting ratio // formatted messages vs user text messages

	userSentenceWords, userSentences           int
	assistantSentenceWords, assistantSentences int

	overlaps []float64 // per user turn, against cumulative assistant vocab
	ttrs     []float64 // per user turn
}

func (c *lcCounts) add(other lcCounts) {
	c.hedges.add(other.hedges)
	c.formatting.add(other.formatting)
	c.userSentenceWords += other.userSentenceWords
	c.userSentences += other.userSentences
	c.assistantSentenceWords += other.assistantSentenceWords
	c.assistantSentences += other.assistantSentences
	c.overlaps = append(c.overlaps, other.overlaps...)
	c.ttrs = append(c.ttrs, other.ttrs...)
}

func (a *LCAnalyzer) collect(conv *models.Conversation) lcCounts {
	var c lcCounts

	assistantVocab := make(map[string]struct{})
	for _, e := range conv.AssistantEvents() {
		if !e.HasText() {
			continue
		}
		for w := range a.text.Vocabulary(e.Text) {
			assistantVocab[w] = struct{}{}
		}
		for _, n := range a.text.SentenceLengths(e.Text) {
			c.assistantSentenceWords += n
			c.assistantSentences++
		}
	}

	for _, e := range conv.UserEvents() {
		if !e.HasText() {
			continue
		}
		tokens := a.text.Tokens(e.Text)

		c.hedges.num += len(a.text.HedgingMatches(e.Text))
		c.hedges.den += len(tokens)

		c.formatting.den++
		if textfeat.StructuralFormatting(e.Text).Total() > 0 {
			c.formatting.num++
		}

		for _, n := range a.text.SentenceLengths(e.Text) {
			c.userSentenceWords += n
			c.userSentences++
		}

		if len(tokens) > 0 && len(assistantVocab) > 0 {
			c.overlaps = append(c.overlaps, jaccard(a.text.Vocabulary(e.Text), assistantVocab))
			c.ttrs = append(c.ttrs, a.text.TypeTokenRatio(e.Text))
		}
	}
	return c
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// sentenceConvergence scores how close the user's mean sentence length
// sits to the assistant's: 1 at parity, 0 when the ratio deviates by a
// full assistant mean or more.
func (c lcCounts) sentenceConvergence() (float64, bool) {
	if c.userSentences == 0 || c.assistantSentences == 0 {
		return 0, false
	}
	userMean := float64(c.userSentenceWords) / float64(c.userSentences)
	assistantMean := float64(c.assistantSentenceWords) / float64(c.assistantSentences)
	if assistantMean == 0 {
		return 0, false
	}
	dev := userMean/assistantMean - 1
	if dev < 0 {
		dev = -dev
	}
	if dev > 1 {
		dev = 1
	}
	return 1 - dev, true
}

func (a *LCAnalyzer) AnalyzeConversation(conv *models.Conversation) (*models.DimensionReport, error) {
	if err := checkModality(a, conv); err != nil {
		return nil, err
	}
	if len(conv.UserEvents()) == 0 || len(conv.AssistantEvents()) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimLC, Reason: "conversation needs both user and assistant turns"}
	}

	c := a.collect(conv)

	overlap, overlapOK := 0.0, false
	if len(c.overlaps) > 0 {
		overlap, overlapOK = c.overlaps[len(c.overlaps)-1], true
	}
	ttr, ttrOK := 0.0, false
	if len(c.ttrs) > 0 {
		ttr, ttrOK = c.ttrs[len(c.ttrs)-1], true
	}

	indicators := a.indicators(c, overlap, overlapOK, "jaccard_similarity",
		ttr, ttrOK, "ttr", baselineOf(lcBaselineTTR))
	return a.report(c, indicators, nil), nil
}

func (a *LCAnalyzer) AnalyzeCorpus(corpus *models.Corpus) (*models.DimensionReport, error) {
	if len(corpus.Conversations) == 0 {
		return nil, &EmptyInputError{Dimension: models.DimLC, Reason: "corpus has no conversations"}
	}
	if !corpusHasModality(a, corpus) {
		return nil, &ModalityError{Dimension: models.DimLC, Required: models.ModalityText}
	}

	var pooled lcCounts
	var overlapPoints, ttrPoints []trajectory.Point

	for _, conv := range corpus.Conversations {
		if checkModality(a, conv) != nil {
			log.Printf("warning: skipping conversation %s: no text content for LC analysis", conv.ID)
			continue
		}
		c := a.collect(conv)
		pooled.add(c)

		start, ok := conv.StartTime()
		if !ok {
			continue
		}
		if m, ok := meanOf(c.overlaps); ok {
			overlapPoints = append(overlapPoints, trajectory.Point{Timestamp: start, Value: m})
		}
		if m, ok := meanOf(c.ttrs); ok {
			ttrPoints = append(ttrPoints, trajectory.Point{Timestamp: start, Value: m})
		}
	}

	// At corpus level the vocabulary and TTR indicators carry the fitted
	// slope: the question is whether convergence deepens over time, not
	// where it currently sits.
	overlapTraj := trajectory.Analyze(overlapPoints)
	ttrTraj := trajectory.Analyze(ttrPoints)

	overlapSlope, overlapOK := slopeOf(overlapTraj)
	ttrSlope, ttrOK := slopeOf(ttrTraj)

	indicators := a.indicators(pooled, overlapSlope, overlapOK, "slope_per_interval",
		ttrSlope, ttrOK, "slope_per_interval", baselineOf(0))
	return a.report(pooled, indicators, &overlapTraj), nil
}

func slopeOf(t models.TrajectoryData) (float64, bool) {
	if t.Slope == nil {
		return 0, false
	}
	return *t.Slope, true
}

func (a *LCAnalyzer) indicators(c lcCounts, overlap float64, overlapOK bool, overlapUnit string,
	ttr float64, ttrOK bool, ttrUnit string, ttrBaseline *float64) map[string]models.IndicatorResult {

	indicators := make(map[string]models.IndicatorResult, 5)

	if overlapOK {
		conf := 0.80
		indicators["vocabulary_overlap_trajectory"] = models.IndicatorResult{
			Name:           "vocabulary_overlap_trajectory",
			Value:          overlap,
			Unit:           overlapUnit,
			Confidence:     &conf,
			Interpretation: fmt.Sprintf("vocabulary overlap with assistant: %.3f (%s)", overlap, overlapUnit),
		}
	} else {
		indicators["vocabulary_overlap_trajectory"] = models.InsufficientIndicator(
			"vocabulary_overlap_trajectory", overlapUnit,
			"too few user turns with analyzable text to measure vocabulary overlap")
	}

	// Hedging rate reads per 100 words.
	hedgeRate, hedgeOK := c.hedges.value()
	if hedgeOK {
		conf := 0.85
		indicators["hedging_pattern_adoption"] = models.IndicatorResult{
			Name:           "hedging_pattern_adoption",
			Value:          hedgeRate * 100,
			Unit:           "hedges_per_100_words",
			Confidence:     &conf,
			Interpretation: fmt.Sprintf("%.2f AI-characteristic hedging phrases per 100 user words", hedgeRate*100),
		}
	} else {
		indicators["hedging_pattern_adoption"] = models.InsufficientIndicator(
			"hedging_pattern_adoption", "hedges_per_100_words", "user turns contain no words")
	}

	if conv, ok := c.sentenceConvergence(); ok {
		conf := 0.75
		indicators["sentence_length_convergence"] = models.IndicatorResult{
			Name:           "sentence_length_convergence",
			Value:          conv,
			Unit:           "convergence_ratio",
			Confidence:     &conf,
			Interpretation: fmt.Sprintf("sentence length similarity: %.2f (1.0 = identical means)", conv),
		}
	} else {
		indicators["sentence_length_convergence"] = models.InsufficientIndicator(
			"sentence_length_convergence", "convergence_ratio",
			"need sentences on both sides to compare lengths")
	}

	fmtRate, _ := c.formatting.value()
	indicators["structural_formatting_adoption"] = ratioIndicator(
		"structural_formatting_adoption", "proportion", c.formatting,
		baselineOf(lcBaselineFormatting), 0.90,
		fmt.Sprintf("structural formatting in %.1f%% of user messages", fmtRate*100),
		"conversation has no user text messages")

	if ttrOK {
		conf := 0.80
		indicators["type_token_ratio_trajectory"] = models.IndicatorResult{
			Name:           "type_token_ratio_trajectory",
			Value:          ttr,
			Baseline:       ttrBaseline,
			Unit:           ttrUnit,
			Confidence:     &conf,
			Interpretation: fmt.Sprintf("type-token ratio measurement: %.3f (%s)", ttr, ttrUnit),
		}
	} else {
		indicators["type_token_ratio_trajectory"] = models.InsufficientIndicator(
			"type_token_ratio_trajectory", ttrUnit,
			"too few user turns with analyzable text to measure lexical diversity")
	}

	return indicators
}

func (a *LCAnalyzer) report(c lcCounts, indicators map[string]models.IndicatorResult, traj *models.TrajectoryData) *models.DimensionReport {
	fmtRate, _ := c.formatting.value()
	hedgeRate, _ := c.hedges.value()

	description := fmt.Sprintf(
		"Linguistic convergence analysis over %d user messages: %.2f hedges per 100 words, "+
			"structural formatting in %.1f%% of messages, %d vocabulary samples.",
		c.formatting.den, hedgeRate*100, fmtRate*100, len(c.overlaps))

	baselineComparison := fmt.Sprintf(
		"Structural formatting rate (%.1f%%) compares against roughly %.0f%% in typical "+
			"human conversational writing; sustained rates well above it suggest adoption of "+
			"AI output conventions. Type-token ratios below %.2f indicate reduced lexical "+
			"diversity relative to typical conversational writing.",
		fmtRate*100, lcBaselineFormatting*100, lcBaselineTTR)

	r := newReport(models.DimLC, indicators, description, baselineComparison,
		"Conversational partners naturally align on vocabulary, syntax and style; "+
			"the interactive alignment literature treats this as ordinary dialogue "+
			"behavior. Recent work measuring humans in extended LLM conversation finds "+
			"convergence toward AI-characteristic hedging, structural formatting and "+
			"reduced lexical diversity. Convergence becomes a concern when it persists "+
			"outside AI interactions, which this analysis cannot observe.",
		[]string{
			"Cannot distinguish conscious style choices from unconscious convergence",
			"Single conversations say little; the signal is longitudinal drift across contexts",
			"Does not measure whether adopted patterns persist outside AI interactions",
			"Natural dialogue alignment and problematic adoption look identical to pattern matching",
			"Baselines describe general conversational writing; technical contexts differ",
			"Ignores individual writing style, education and language background",
		})
	r.Trajectory = traj
	return r
}
