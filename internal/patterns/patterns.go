/*
Package patterns holds the lexical vocabulary the text analyzers match
against: hedging phrases, validation language, attribution patterns,
intent-classification cues and sentiment word lists.

The vocabulary ships as an embedded YAML file and can be replaced at
runtime (the --patterns flag) so researchers can localize or extend the
pattern lists without rebuilding. Load produces an immutable compiled Set;
analyzers receive a Set and never touch YAML or regex compilation
themselves.
*/
package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the raw pattern vocabulary as parsed from YAML, before
// compilation. Phrase lists are matched as case-insensitive substrings,
// regex lists compile with (?i).
type Config struct {
	// Substring phrase lists.
	Hedging     []string `yaml:"hedging"`
	Validation  []string `yaml:"validation"`
	Attribution []string `yaml:"attribution"`

	// Regex lists.
	Perspective        []string `yaml:"perspective"`
	Affirming          []string `yaml:"affirming"`
	NonAffirming       []string `yaml:"nonAffirming"`
	StrongValidation   []string `yaml:"strongValidation"`
	Challenge          []string `yaml:"challenge"`
	ActionIndicators   []string `yaml:"actionIndicators"`
	Recommendation     []string `yaml:"recommendation"`
	CriticalEngagement []string `yaml:"criticalEngagement"`
	Offloading         []string `yaml:"offloading"`
	BoundaryConfusion  []string `yaml:"boundaryConfusion"`
	Relational         []string `yaml:"relational"`

	// Substring cue lists for turn-intent classification.
	DecisionRequest    []string `yaml:"decisionRequest"`
	InformationRequest []string `yaml:"informationRequest"`
	InformationExclude []string `yaml:"informationExclude"`
	Collaborative      []string `yaml:"collaborative"`

	// Token word lists.
	PositiveWords    []string `yaml:"positiveWords"`
	NegativeWords    []string `yaml:"negativeWords"`
	EmotionalWords   []string `yaml:"emotionalWords"`
	FunctionalPhrases []string `yaml:"functionalPhrases"`
}

// Set is the compiled, immutable form of a Config. All phrase entries are
// lowercased once at compile time; word lists become membership sets.
type Set struct {
	Hedging     []string
	Validation  []string
	Attribution []string

	Perspective        []*regexp.Regexp
	Affirming          []*regexp.Regexp
	NonAffirming       []*regexp.Regexp
	StrongValidation   []*regexp.Regexp
	Challenge          []*regexp.Regexp
	ActionIndicators   []*regexp.Regexp
	Recommendation     []*regexp.Regexp
	CriticalEngagement []*regexp.Regexp
	Offloading         []*regexp.Regexp
	BoundaryConfusion  []*regexp.Regexp
	Relational         []*regexp.Regexp

	DecisionRequest    []string
	InformationRequest []string
	InformationExclude []string
	Collaborative      []string

	Positive   map[string]struct{}
	Negative   map[string]struct{}
	Emotional  map[string]struct{}
	Functional []string
}

// requiredLists are the lists an analyzer cannot run without. A custom
// pattern file may extend or replace entries but not empty these out.
var requiredLists = []struct {
	key string
	get func(*Config) int
}{
	{"hedging", func(c *Config) int { return len(c.Hedging) }},
	{"validation", func(c *Config) int { return len(c.Validation) }},
	{"attribution", func(c *Config) int { return len(c.Attribution) }},
	{"affirming", func(c *Config) int { return len(c.Affirming) }},
	{"challenge", func(c *Config) int { return len(c.Challenge) }},
	{"actionIndicators", func(c *Config) int { return len(c.ActionIndicators) }},
	{"decisionRequest", func(c *Config) int { return len(c.DecisionRequest) }},
	{"emotionalWords", func(c *Config) int { return len(c.EmotionalWords) }},
}

// Compile validates the config and produces an immutable Set. path is used
// in error messages only and may be empty for the embedded defaults.
func (c *Config) Compile(path string) (*Set, error) {
	for _, req := range requiredLists {
		if req.get(c) == 0 {
			return nil, &InvalidPatternError{
				Path:    path,
				List:    req.key,
				Message: "list is required and must not be empty",
			}
		}
	}

	s := &Set{
		Hedging:            lowerAll(c.Hedging),
		Validation:         lowerAll(c.Validation),
		Attribution:        lowerAll(c.Attribution),
		DecisionRequest:    lowerAll(c.DecisionRequest),
		InformationRequest: lowerAll(c.InformationRequest),
		InformationExclude: lowerAll(c.InformationExclude),
		Collaborative:      lowerAll(c.Collaborative),
		Positive:           wordSet(c.PositiveWords),
		Negative:           wordSet(c.NegativeWords),
		Emotional:          wordSet(c.EmotionalWords),
		Functional:         lowerAll(c.FunctionalPhrases),
	}

	var err error
	for _, group := range []struct {
		key string
		src []string
		dst *[]*regexp.Regexp
	}{
		{"perspective", c.Perspective, &s.Perspective},
		{"affirming", c.Affirming, &s.Affirming},
		{"nonAffirming", c.NonAffirming, &s.NonAffirming},
		{"strongValidation", c.StrongValidation, &s.StrongValidation},
		{"challenge", c.Challenge, &s.Challenge},
		{"actionIndicators", c.ActionIndicators, &s.ActionIndicators},
		{"recommendation", c.Recommendation, &s.Recommendation},
		{"criticalEngagement", c.CriticalEngagement, &s.CriticalEngagement},
		{"offloading", c.Offloading, &s.Offloading},
		{"boundaryConfusion", c.BoundaryConfusion, &s.BoundaryConfusion},
		{"relational", c.Relational, &s.Relational},
	} {
		*group.dst, err = compileAll(path, group.key, group.src)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func compileAll(path, key string, exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, &InvalidPatternError{
				Path:    path,
				List:    key,
				Pattern: expr,
				Message: err.Error(),
			}
		}
		out = append(out, re)
	}
	return out, nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Load reads a pattern file from disk and compiles it. Lists absent from
// the file fall back to the embedded defaults, so a custom file only needs
// to carry the lists it changes.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidPatternError{Path: path, Message: err.Error()}
	}
	return cfg.Compile(path)
}

func defaultConfig() *Config {
	cfg := &Config{}
	// The embedded file is validated by tests; a parse failure here is a
	// broken build, not a runtime condition.
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("patterns: embedded defaults do not parse: %v", err))
	}
	return cfg
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

// Default returns the compiled embedded pattern vocabulary. The result is
// shared and must not be modified.
func Default() *Set {
	defaultOnce.Do(func() {
		var err error
		defaultSet, err = defaultConfig().Compile("")
		if err != nil {
			panic(fmt.Sprintf("patterns: embedded defaults do not compile: %v", err))
		}
	})
	return defaultSet
}
