package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewParseCmd creates the 'parse' command: validate an export and print
// what the parsers found, without running any analysis.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <export-file>",
		Short: "Parse and validate a chat export file",
		Long: `Parse a chat export file and summarize its contents.

Supported formats are auto-detected:
  chatgpt     - ChatGPT data export (ZIP or conversations.json)
  characterai - Character.AI export (official or CAI Tools JSON)
  claude      - claude.ai export (JSON, JSONL or ZIP)
  generic     - JSON message array or CSV with role/content columns`,
		Example: `  entrain parse export.zip
  entrain parse conversations.json
  entrain parse messages.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0])
		},
	}
	return cmd
}

func runParse(cmd *cobra.Command, path string) error {
	corpus, err := loadCorpus(path)
	if err != nil {
		return err
	}

	events, userEvents, audioEvents := 0, 0, 0
	for _, conv := range corpus.Conversations {
		events += len(conv.Events)
		userEvents += len(conv.UserEvents())
		for _, e := range conv.Events {
			if e.HasAudio() {
				audioEvents++
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Parsed %d conversations\n", len(corpus.Conversations))
	fmt.Fprintf(out, "  Total events: %d (%d from the user)\n", events, userEvents)
	if audioEvents > 0 {
		fmt.Fprintf(out, "  Voice turns with acoustic features: %d\n", audioEvents)
	}
	if !corpus.From.IsZero() {
		fmt.Fprintf(out, "  Date range: %s to %s\n",
			corpus.From.Format("2006-01-02"), corpus.To.Format("2006-01-02"))
	} else {
		fmt.Fprintf(out, "  Date range: no timestamps in export\n")
	}
	for _, conv := range corpus.Conversations {
		title := conv.Metadata["title"]
		if title != "" {
			title = " " + title
		}
		fmt.Fprintf(out, "  - %s (%d events)%s\n", conv.ID, len(conv.Events), title)
	}
	return nil
}
