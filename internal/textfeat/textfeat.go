/*
Package textfeat extracts linguistic features from conversational text:
vocabulary, lexical diversity, sentence structure, pattern matches,
sentiment and turn-intent classification.

Tokenization uses bleve's UAX#29 unicode segmenter so vocabulary and
type-token measurements behave sensibly for non-ASCII text. Everything
else is intentionally shallow lexical matching against an injectable
patterns.Set; no model inference happens here.
*/
package textfeat

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	tokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/entrainlab/entrain/internal/patterns"
)

// PatternMatch is one matched phrase with its surrounding context.
type PatternMatch struct {
	Pattern  string `json:"pattern"`
	Position int    `json:"position"`
	Context  string `json:"context"`
}

// Intent classifies what a user turn asks of the assistant.
type Intent string

const (
	IntentDecisionRequest    Intent = "decision_request"
	IntentInformationRequest Intent = "information_request"
	IntentCollaborative      Intent = "collaborative_reasoning"
	IntentOther              Intent = "other"
)

// FormattingCounts tallies structural formatting elements characteristic
// of AI-generated text.
type FormattingCounts struct {
	NumberedLists int `json:"numberedLists"`
	BulletPoints  int `json:"bulletPoints"`
	Headers       int `json:"headers"`
}

// Total returns the combined count of all formatting elements.
func (f FormattingCounts) Total() int {
	return f.NumberedLists + f.BulletPoints + f.Headers
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.`)
	bulletPoint   = regexp.MustCompile(`(?m)^\s*[-*•]`)
	mdHeader      = regexp.MustCompile(`(?m)^#+\s`)
)

// Extractor computes text features against one compiled pattern set. It is
// stateless after construction and safe for concurrent use.
type Extractor struct {
	set   *patterns.Set
	tok   analysis.Tokenizer
	lower analysis.TokenFilter
}

// New builds an extractor around the given pattern set. Pass
// patterns.Default() unless a custom vocabulary was loaded.
func New(set *patterns.Set) *Extractor {
	return &Extractor{
		set:   set,
		tok:   tokenizer.NewUnicodeTokenizer(),
		lower: lowercase.NewLowerCaseFilter(),
	}
}

// Set returns the pattern vocabulary this extractor matches against.
func (e *Extractor) Set() *patterns.Set { return e.set }

// Tokens returns the lowercased word tokens of text. Tokens without a
// letter (pure numbers, stray punctuation) are dropped.
func (e *Extractor) Tokens(text string) []string {
	stream := e.lower.Filter(e.tok.Tokenize([]byte(text)))
	out := make([]string, 0, len(stream))
	for _, t := range stream {
		term := string(t.Term)
		if hasLetter(term) {
			out = append(out, term)
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Vocabulary returns the set of unique word tokens in text.
func (e *Extractor) Vocabulary(text string) map[string]struct{} {
	tokens := e.Tokens(text)
	vocab := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		vocab[t] = struct{}{}
	}
	return vocab
}

// TypeTokenRatio computes lexical diversity: unique words over total
// words. Returns 0 for text with no word tokens.
func (e *Extractor) TypeTokenRatio(text string) float64 {
	tokens := e.Tokens(text)
	if len(tokens) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	return float64(len(unique)) / float64(len(tokens))
}

// SentenceLengths returns the word count of each sentence. Sentences are
// split on runs of .!? and empty splits are skipped.
func (e *Extractor) SentenceLengths(text string) []int {
	var lengths []int
	for _, sent := range sentenceSplit.Split(text, -1) {
		if n := len(e.Tokens(sent)); n > 0 {
			lengths = append(lengths, n)
		}
	}
	return lengths
}

// MeanSentenceLength returns the average sentence length in words; ok is
// false when the text contains no sentences.
func (e *Extractor) MeanSentenceLength(text string) (float64, bool) {
	lengths := e.SentenceLengths(text)
	if len(lengths) == 0 {
		return 0, false
	}
	sum := 0
	for _, n := range lengths {
		sum += n
	}
	return float64(sum) / float64(len(lengths)), true
}

// findPhrases locates every occurrence of each phrase as a
// case-insensitive substring, capturing 30 characters of context on each
// side.
func findPhrases(text string, phrases []string) []PatternMatch {
	var matches []PatternMatch
	lower := strings.ToLower(text)

	for _, phrase := range phrases {
		pos := 0
		for {
			idx := strings.Index(lower[pos:], phrase)
			if idx < 0 {
				break
			}
			at := pos + idx
			start := at - 30
			if start < 0 {
				start = 0
			}
			end := at + len(phrase) + 30
			if end > len(lower) {
				end = len(lower)
			}
			matches = append(matches, PatternMatch{
				Pattern:  phrase,
				Position: at,
				Context:  lower[start:end],
			})
			pos = at + len(phrase)
		}
	}
	return matches
}

// HedgingMatches returns all hedging phrase occurrences in text.
func (e *Extractor) HedgingMatches(text string) []PatternMatch {
	return findPhrases(text, e.set.Hedging)
}

// ValidationMatches returns all validation language occurrences in text.
func (e *Extractor) ValidationMatches(text string) []PatternMatch {
	return findPhrases(text, e.set.Validation)
}

// AttributionMatches returns occurrences of language attributing human
// qualities (understanding, caring, remembering) to the assistant.
func (e *Extractor) AttributionMatches(text string) []PatternMatch {
	return findPhrases(text, e.set.Attribution)
}

// MatchesAny reports whether any regex in the list matches text.
func MatchesAny(text string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CountMatches returns the total occurrence count across every regex in
// the list.
func CountMatches(text string, res []*regexp.Regexp) int {
	n := 0
	for _, re := range res {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// ClassifyTurnIntent classifies a user turn as a decision request, an
// information request, collaborative reasoning, or other. Decision cues
// win over information cues, and an information request mentioning
// decision words ("should", "best", ...) is not an information request.
func (e *Extractor) ClassifyTurnIntent(text string) Intent {
	lower := strings.ToLower(text)

	if containsAny(lower, e.set.DecisionRequest) {
		return IntentDecisionRequest
	}
	if containsAny(lower, e.set.InformationRequest) && !containsAny(lower, e.set.InformationExclude) {
		return IntentInformationRequest
	}
	if containsAny(lower, e.set.Collaborative) {
		return IntentCollaborative
	}
	return IntentOther
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Sentiment scores text in [-1, 1] by positive and negative word counts
// normalized by total word count. Crude by design; it only needs to
// separate clearly positive turns from clearly negative ones.
func (e *Extractor) Sentiment(text string) float64 {
	tokens := e.Tokens(text)
	if len(tokens) == 0 {
		return 0
	}
	pos, neg := 0, 0
	for _, t := range tokens {
		if _, ok := e.set.Positive[t]; ok {
			pos++
		}
		if _, ok := e.set.Negative[t]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(len(tokens))
}

// EmotionalContentRatio measures emotional versus functional language:
// emotional word hits over combined emotional and functional hits. Text
// with neither reads as 0.
func (e *Extractor) EmotionalContentRatio(text string) float64 {
	lower := strings.ToLower(text)
	emotional := 0
	for _, t := range e.Tokens(text) {
		if _, ok := e.set.Emotional[t]; ok {
			emotional++
		}
	}
	functional := 0
	for _, phrase := range e.set.Functional {
		functional += strings.Count(lower, phrase)
	}
	total := emotional + functional
	if total == 0 {
		return 0
	}
	return float64(emotional) / float64(total)
}

// StructuralFormatting counts numbered lists, bullet points and markdown
// headers in text.
func StructuralFormatting(text string) FormattingCounts {
	return FormattingCounts{
		NumberedLists: len(numberedList.FindAllStringIndex(text, -1)),
		BulletPoints:  len(bulletPoint.FindAllStringIndex(text, -1)),
		Headers:       len(mdHeader.FindAllStringIndex(text, -1)),
	}
}
