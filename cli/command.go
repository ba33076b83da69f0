// Package cli provides shared cobra command scaffolding for perch commands.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perchdev/perch/logging"
)

// NewStandardCommand creates a new command with standard perch flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	return cmd
}

// GetLogger creates a component logger honoring command flags.
func GetLogger(cmd *cobra.Command, component string) *logrus.Entry {
	entry := logging.NewLogger(component)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// JSONOutput reports whether the user asked for machine-readable output.
func JSONOutput(cmd *cobra.Command) bool {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return jsonOut
}
