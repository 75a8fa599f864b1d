/*
Package assess orchestrates a full analysis run: it fans a parsed corpus
out to the dimension analyzers, assembles the top-level report, and
optionally layers cross-dimensional analysis on top.

A dimension that cannot run (wrong modality, nothing to analyze) is
skipped with a warning, never fatal; the report simply omits it.
*/
package assess

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/entrainlab/entrain/internal/crossdim"
	"github.com/entrainlab/entrain/internal/dimensions"
	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/patterns"
	"github.com/entrainlab/entrain/internal/version"
)

// Options selects what a run covers.
type Options struct {
	// Dimensions restricts analysis to the named codes; empty means all.
	Dimensions []string
	// Corpus analyzes the whole corpus longitudinally instead of only the
	// first conversation.
	Corpus bool
	// CrossDimensional adds correlation, risk scoring and pattern
	// detection over the dimension results.
	CrossDimensional bool
	// Patterns overrides the embedded default pattern set.
	Patterns *patterns.Set
	// CrossDim overrides the cross-dimensional engine options.
	CrossDim *crossdim.Options
}

// Run analyzes the corpus and returns the assembled report.
func Run(corpus *models.Corpus, opts Options) (*models.EntrainReport, error) {
	if corpus == nil || len(corpus.Conversations) == 0 {
		return nil, errors.New("nothing to analyze: corpus has no conversations")
	}

	set := opts.Patterns
	if set == nil {
		set = patterns.Default()
	}
	registry := dimensions.NewRegistry(set)

	analyzers, err := selectAnalyzers(registry, opts.Dimensions)
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*models.DimensionReport)
	for _, a := range analyzers {
		report, err := analyzeOne(a, corpus, opts.Corpus)
		if err != nil {
			var modality *dimensions.ModalityError
			var empty *dimensions.EmptyInputError
			if errors.As(err, &modality) || errors.As(err, &empty) {
				log.Printf("warning: skipping %s: %v", a.Dimension(), err)
				continue
			}
			return nil, fmt.Errorf("%s analysis: %w", a.Dimension(), err)
		}
		reports[a.Dimension()] = report
	}
	if len(reports) == 0 {
		return nil, errors.New("no dimension produced a result for this input")
	}

	result := &models.EntrainReport{
		Version:     version.Framework,
		GeneratedAt: time.Now().UTC(),
		Input:       summarize(corpus),
		Dimensions:  reports,
	}

	if opts.CrossDimensional {
		cdOpts := crossdim.DefaultOptions()
		if opts.CrossDim != nil {
			cdOpts = *opts.CrossDim
		}
		engine := crossdim.NewEngine(cdOpts)
		samples := conversationSamples(analyzers, corpus)
		result.CrossDimensional = engine.Analyze(result.DimensionScores(), samples)
	}
	return result, nil
}

// selectAnalyzers resolves the requested dimension codes, defaulting to
// all of them.
func selectAnalyzers(registry *dimensions.Registry, codes []string) ([]dimensions.Analyzer, error) {
	if len(codes) == 0 {
		return registry.All(), nil
	}
	var out []dimensions.Analyzer
	for _, code := range codes {
		a, ok := registry.Get(code)
		if !ok {
			return nil, &dimensions.UnknownDimensionError{Code: code, Known: registry.Codes()}
		}
		out = append(out, a)
	}
	return out, nil
}

func analyzeOne(a dimensions.Analyzer, corpus *models.Corpus, wholeCorpus bool) (*models.DimensionReport, error) {
	if wholeCorpus {
		return a.AnalyzeCorpus(corpus)
	}
	return a.AnalyzeConversation(corpus.Conversations[0])
}

// conversationSamples reduces each conversation to one dimension-score
// map. These per-conversation samples feed the correlation matrix; a
// dimension that cannot run on a conversation is simply absent from that
// sample.
func conversationSamples(analyzers []dimensions.Analyzer, corpus *models.Corpus) []crossdim.Sample {
	var samples []crossdim.Sample
	for _, conv := range corpus.Conversations {
		sample := make(crossdim.Sample)
		for _, a := range analyzers {
			report, err := a.AnalyzeConversation(conv)
			if err != nil {
				continue
			}
			wrapped := &models.EntrainReport{
				Dimensions: map[string]*models.DimensionReport{a.Dimension(): report},
			}
			if score, ok := wrapped.DimensionScores()[a.Dimension()]; ok {
				sample[a.Dimension()] = score
			}
		}
		if len(sample) > 0 {
			samples = append(samples, sample)
		}
	}
	return samples
}

func summarize(corpus *models.Corpus) models.InputSummary {
	s := models.InputSummary{
		Conversations: len(corpus.Conversations),
		From:          corpus.From,
		To:            corpus.To,
	}
	sources := make(map[string]bool)
	for _, conv := range corpus.Conversations {
		if conv.Source != "" {
			sources[conv.Source] = true
		}
		s.Events += len(conv.Events)
		s.UserEvents += len(conv.UserEvents())
		s.AssistantEvents += len(conv.AssistantEvents())
	}
	if len(sources) == 1 {
		for src := range sources {
			s.Source = src
		}
	}
	return s
}
