package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/models"
)

// NewAnalyzeCmd creates the 'analyze' command: run dimension analyzers
// over an export and print an indicator summary.
func NewAnalyzeCmd() *cobra.Command {
	flags := &analysisFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <export-file>",
		Short: "Analyze conversations for cognitive influence dimensions",
		Long: `Analyze a chat export across the six influence dimensions:

  SR  - Sycophantic Reinforcement
  LC  - Linguistic Convergence
  AE  - Autonomy Erosion
  RCD - Reality Coherence Disruption
  DF  - Dependency Formation
  PE  - Prosodic Entrainment (voice exports only)

By default only the first conversation is analyzed; --corpus runs the
longitudinal corpus analysis with trajectories.`,
		Example: `  # Analyze all dimensions of the first conversation
  entrain analyze export.json

  # Longitudinal analysis of the whole corpus with risk scoring
  entrain analyze export.json --corpus --cross-dimensional

  # One dimension, saved to history
  entrain analyze export.json --dim SR --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, flags *analysisFlags) error {
	result, err := runAssessment(path, flags)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printAnalysisSummary(out, result)

	if result.CrossDimensional != nil {
		printCrossDimensional(out, result.CrossDimensional)
	}

	runID, err := saveRun(result, flags)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if runID != "" {
		fmt.Fprintf(out, "\nSaved as run %s\n", runID)
	}
	return nil
}

func printAnalysisSummary(out io.Writer, result *models.EntrainReport) {
	fmt.Fprintf(out, "Analyzed %d conversations (%d events)\n\n", result.Input.Conversations, result.Input.Events)

	for _, code := range orderedCodes(result) {
		dim := result.Dimensions[code]
		fmt.Fprintf(out, "%s: %s\n", code, models.DimensionName(code))

		names := make([]string, 0, len(dim.Indicators))
		for name := range dim.Indicators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ind := dim.Indicators[name]
			if ind.Insufficient {
				fmt.Fprintf(out, "  - %s: insufficient data (%s)\n", name, ind.Interpretation)
				continue
			}
			line := fmt.Sprintf("  - %s: %.3f", name, ind.Value)
			if ind.Baseline != nil {
				line += fmt.Sprintf(" (baseline: %.3f)", *ind.Baseline)
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	}
}

func printCrossDimensional(out io.Writer, cd *models.CrossDimensionalReport) {
	fmt.Fprintln(out, "Cross-Dimensional Analysis")
	fmt.Fprintf(out, "  Overall Risk: %s (%.0f%%)\n", cd.Risk.Level, cd.Risk.Score*100)
	if cd.Risk.Interpretation != "" {
		fmt.Fprintf(out, "  %s\n", cd.Risk.Interpretation)
	}
	if len(cd.Patterns) > 0 {
		fmt.Fprintf(out, "\n  Detected patterns (%d):\n", len(cd.Patterns))
		for _, p := range cd.Patterns {
			fmt.Fprintf(out, "  [%s] %s: %s\n", p.Severity, p.ID, p.Description)
			fmt.Fprintf(out, "        Recommendation: %s\n", p.Recommendation)
		}
	}
	fmt.Fprintf(out, "\n  Summary: %s\n", cd.Summary)
}

// orderedCodes returns the result's dimension codes in canonical order.
func orderedCodes(result *models.EntrainReport) []string {
	var codes []string
	for _, code := range models.AllDimensions {
		if result.Dimensions[code] != nil {
			codes = append(codes, code)
		}
	}
	for code := range result.Dimensions {
		if models.DimensionName(code) == code {
			codes = append(codes, code)
		}
	}
	return codes
}
