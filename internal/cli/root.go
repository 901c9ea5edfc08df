package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relsign",
		Short: "Sign, verify and publish Android release artifacts",
		Long: `Relsign takes the unsigned release artifact a build step deposits
into an output directory and drives it through a fixed sequence of
stages: locate, sign with an external tool, verify the signature,
rename to the final "signed" filename and publish integrity data.

The run halts at the first failing stage with a distinct exit code per
stage, so CI callers can branch on the failure class.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewVerifyCmd())

	return rootCmd
}
