package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/report"
)

// NewHistoryCmd creates the 'history' command: list saved runs, show one
// in full, or delete one.
func NewHistoryCmd() *cobra.Command {
	var (
		limit      int
		dbPath     string
		showID     string
		deleteID   string
		formatName string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved assessment runs",
		Long: `List assessment runs previously saved with --save.

Each entry shows when the run happened, what was analyzed and the
composite risk grade. Use --show to print one stored report in full.`,
		Example: `  # List the last 10 runs
  entrain history --limit 10

  # Print one stored report as markdown
  entrain history --show 7f3a... --format markdown

  # Remove a run
  entrain history --delete 7f3a...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case showID != "":
				return runHistoryShow(cmd, dbPath, showID, formatName)
			case deleteID != "":
				return runHistoryDelete(cmd, dbPath, deleteID)
			}
			return runHistoryList(cmd, dbPath, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().StringVar(&dbPath, "db", "", "History database path (default: ~/.entrain/history.db)")
	cmd.Flags().StringVar(&showID, "show", "", "Print the stored report for one run id")
	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete one run by id")
	cmd.Flags().StringVar(&formatName, "format", "json", "Format for --show: markdown, json or csv")
	return cmd
}

func runHistoryList(cmd *cobra.Command, dbPath string, limit int) error {
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs. Use --save on analyze or report to record one.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-16s  %-8s  %5s  %6s  %s\n",
		"RUN", "WHEN", "SOURCE", "CONVS", "EVENTS", "RISK")
	for _, r := range runs {
		risk := "-"
		if r.RiskScore != nil {
			risk = fmt.Sprintf("%s (%.0f%%)", r.RiskLevel, *r.RiskScore*100)
		}
		fmt.Fprintf(out, "%-36s  %-16s  %-8s  %5d  %6d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Source,
			r.Conversations, r.Events, risk)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, dbPath, id, formatName string) error {
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	var stored *models.EntrainReport
	if stored, err = s.GetRun(id); err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), stored, format)
}

func runHistoryDelete(cmd *cobra.Command, dbPath, id string) error {
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteRun(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
	return nil
}
