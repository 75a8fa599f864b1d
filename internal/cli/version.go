package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/version"
)

// NewVersionCmd creates the 'version' command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and framework information",
		Long:  `Display the binary version, build metadata, the methodology version and the available dimensions.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}
	return cmd
}

func runVersion(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Version:    %s\n", version.GetVersion())
	fmt.Fprintf(out, "Framework:  %s\n", version.Framework)
	fmt.Fprintln(out, "Dimensions:")
	for _, code := range models.AllDimensions {
		fmt.Fprintf(out, "  %-4s %s\n", code, models.DimensionName(code))
	}
	return nil
}
