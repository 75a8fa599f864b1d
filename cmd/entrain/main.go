/*
Package main is the entry point for the entrain CLI.

entrain measures cognitive influence in human-AI conversations: it
parses chat exports, runs six dimension analyzers over them, and renders
assessment reports.

Usage:
  entrain [command]

Available Commands:
  parse       Parse and validate a chat export file
  analyze     Analyze conversations for cognitive influence dimensions
  report      Generate a formatted assessment report
  history     List saved assessment runs
  version     Show version and framework information

Examples:
  # Validate an export
  entrain parse export.zip

  # Full longitudinal assessment with risk scoring
  entrain analyze export.json --corpus --cross-dimensional

  # Markdown report to a file
  entrain report export.json --corpus --format markdown -o report.md
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/cli"
	"github.com/entrainlab/entrain/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "entrain",
		Short: "Measure AI cognitive influence on humans",
		Long: `entrain analyzes human-AI conversations for cognitive influence
across six dimensions:

  SR  - Sycophantic Reinforcement
  LC  - Linguistic Convergence
  AE  - Autonomy Erosion
  RCD - Reality Coherence Disruption
  DF  - Dependency Formation
  PE  - Prosodic Entrainment (voice conversations)

It parses ChatGPT, Character.AI, claude.ai and generic chat exports,
computes observable indicators per dimension, and composes them into a
single cross-dimensional risk assessment.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewParseCmd())
	rootCmd.AddCommand(cli.NewAnalyzeCmd())
	rootCmd.AddCommand(cli.NewReportCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
