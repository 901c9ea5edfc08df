package cli

import (
	"fmt"

	"github.com/relsign/relsign/internal/models"
	"github.com/relsign/relsign/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var toolPath string
	var toolTimeout = models.DefaultToolTimeout

	cmd := &cobra.Command{
		Use:   "verify <artifact>",
		Short: "Verify the signature on an artifact without renaming it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			path := args[0]

			tool := signer.NewTool(toolPath, toolTimeout)
			result, err := tool.Verify(cmd.Context(), path)
			if err != nil {
				return err
			}

			for _, warning := range result.Warnings {
				logrus.Warnf("Advisory: %s", warning)
			}

			if !result.Verified {
				return &models.PipelineError{
					Stage: models.StageVerify,
					Kind:  models.KindFailed,
					Path:  path,
					Err:   fmt.Errorf("fatal verification markers: %v", result.FatalMarkers),
				}
			}

			logrus.Infof("Signature verified (%s / %s), %d advisory warnings",
				result.SignatureAlg, result.DigestAlg, len(result.Warnings))
			return nil
		},
	}

	cmd.Flags().StringVar(&toolPath, "tool", models.DefaultToolPath, "Signer/verifier executable")
	cmd.Flags().DurationVar(&toolTimeout, "tool-timeout", models.DefaultToolTimeout, "Timeout for the tool invocation")

	return cmd
}
