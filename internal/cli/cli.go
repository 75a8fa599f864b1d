/*
Package cli implements the entrain commands.

Each command is a NewXxxCmd constructor returning a cobra.Command whose
RunE delegates to an unexported run function. Commands write results to
the command's stdout so tests can capture output.
*/
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/assess"
	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/parsers"
	"github.com/entrainlab/entrain/internal/patterns"
	"github.com/entrainlab/entrain/internal/store"
)

// loadCorpus auto-detects the export format and parses it.
func loadCorpus(path string) (*models.Corpus, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("export file: %w", err)
	}
	return parsers.NewRegistry().ParseAuto(path)
}

// loadPatterns returns the embedded defaults or a user-supplied override.
func loadPatterns(path string) (*patterns.Set, error) {
	if path == "" {
		return patterns.Default(), nil
	}
	return patterns.Load(path)
}

// analysisFlags are the flags shared by analyze and report.
type analysisFlags struct {
	dims         []string
	corpus       bool
	crossDim     bool
	patternsPath string
	save         bool
	dbPath       string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.dims, "dim", nil, "Analyze specific dimension(s) only (SR, LC, AE, RCD, DF, PE)")
	cmd.Flags().BoolVar(&f.corpus, "corpus", false, "Analyze the entire corpus longitudinally (default: first conversation only)")
	cmd.Flags().BoolVar(&f.crossDim, "cross-dimensional", false, "Include cross-dimensional analysis (correlations, risk scoring, patterns)")
	cmd.Flags().StringVar(&f.patternsPath, "patterns", "", "Path to a YAML pattern-set overriding the built-in defaults")
	cmd.Flags().BoolVar(&f.save, "save", false, "Save this run to the local history database")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "History database path (default: ~/.entrain/history.db)")
}

// runAssessment parses the export and runs the selected analysis.
func runAssessment(exportPath string, f *analysisFlags) (*models.EntrainReport, error) {
	corpus, err := loadCorpus(exportPath)
	if err != nil {
		return nil, err
	}
	set, err := loadPatterns(f.patternsPath)
	if err != nil {
		return nil, err
	}
	return assess.Run(corpus, assess.Options{
		Dimensions:       f.dims,
		Corpus:           f.corpus,
		CrossDimensional: f.crossDim,
		Patterns:         set,
	})
}

// saveRun persists the report when --save was given and returns the run
// id, or "" when saving was not requested.
func saveRun(report *models.EntrainReport, f *analysisFlags) (string, error) {
	if !f.save {
		return "", nil
	}
	s, err := openStore(f.dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.SaveRun(report, report.DimensionScores())
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		var err error
		path, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}
