package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/report"
)

// NewReportCmd creates the 'report' command: run an analysis and render
// it as markdown, JSON or CSV.
func NewReportCmd() *cobra.Command {
	flags := &analysisFlags{}
	var (
		formatName string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "report <export-file>",
		Short: "Generate a formatted assessment report",
		Long: `Analyze a chat export and render the full assessment report.

Formats:
  markdown - human-readable report with indicator tables (default)
  json     - complete machine-readable report
  csv      - one row per indicator, for spreadsheets and statistics`,
		Example: `  # Markdown report to stdout
  entrain report export.json --corpus

  # JSON report with cross-dimensional analysis to a file
  entrain report export.json --corpus --cross-dimensional --format json -o report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], flags, formatName, outputPath)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&formatName, "format", "markdown", "Report format: markdown, json or csv")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func runReport(cmd *cobra.Command, path string, flags *analysisFlags, formatName, outputPath string) error {
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	result, err := runAssessment(path, flags)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := report.Save(outputPath, result, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
	} else if err := report.Write(cmd.OutOrStdout(), result, format); err != nil {
		return err
	}

	runID, err := saveRun(result, flags)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if runID != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved as run %s\n", runID)
	}
	return nil
}
