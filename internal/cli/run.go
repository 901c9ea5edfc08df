package cli

import (
	"fmt"

	"github.com/relsign/relsign/internal/attest"
	"github.com/relsign/relsign/internal/keystore"
	"github.com/relsign/relsign/internal/models"
	"github.com/relsign/relsign/internal/pipeline"
	"github.com/relsign/relsign/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var config models.Config
	var kindFlag string
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full signing pipeline on a build output directory",
		Long: `Locates the single unsigned release artifact in the output
directory, signs it in place, verifies the signature, renames it from
the "unsigned" to the "signed" filename and writes a checksum manifest
next to it.

Secrets are read from the environment when the corresponding flags are
unset: RELSIGN_KEYSTORE_B64 (base64 keystore), RELSIGN_STORE_PASS,
RELSIGN_KEY_PASS and RELSIGN_GPG_PASSPHRASE. They are never logged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if configFile != "" {
				if err := config.LoadConfigFile(configFile); err != nil {
					return &models.PipelineError{
						Stage: models.StageConfig,
						Kind:  models.KindInvalidConfig,
						Path:  configFile,
						Err:   err,
					}
				}
			}
			config.ReadSecretsFromEnv()

			if err := validateConfig(&config, kindFlag); err != nil {
				return err
			}

			return runPipeline(cmd, &config)
		},
	}

	// Input flags
	cmd.Flags().StringVarP(&config.OutputDir, "output-dir", "o", "", "Build output directory to search")
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "apk", "Artifact kind (apk or aab)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Optional YAML config file (non-secret settings)")

	// Signing identity flags
	cmd.Flags().StringVar(&config.KeystorePath, "keystore", "", "Path to the signing keystore")
	cmd.Flags().StringVar(&config.Alias, "alias", "", "Keystore alias to sign with")
	cmd.Flags().StringVar(&config.StorePassword, "store-pass", "", "Keystore password (prefer RELSIGN_STORE_PASS)")
	cmd.Flags().StringVar(&config.KeyPassword, "key-pass", "", "Key password (prefer RELSIGN_KEY_PASS)")

	// External tool flags
	cmd.Flags().StringVar(&config.ToolPath, "tool", models.DefaultToolPath, "Signer/verifier executable")
	cmd.Flags().DurationVar(&config.ToolTimeout, "tool-timeout", models.DefaultToolTimeout, "Timeout per external tool invocation")
	cmd.Flags().StringVar(&config.SignatureAlg, "sigalg", "", "Signature algorithm passed to the tool")
	cmd.Flags().StringVar(&config.DigestAlg, "digestalg", "", "Digest algorithm passed to the tool")

	// Attestation flags
	cmd.Flags().StringVar(&config.GPGKeyPath, "gpg-key", "", "GPG private key for signing the checksum manifest")
	cmd.Flags().StringVar(&config.GPGPassphrase, "gpg-passphrase", "", "GPG key passphrase (prefer RELSIGN_GPG_PASSPHRASE)")

	return cmd
}

func validateConfig(config *models.Config, kindFlag string) error {
	kind, err := models.ParseArtifactKind(kindFlag)
	if err != nil {
		return &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   err,
		}
	}
	config.Kind = kind

	if config.OutputDir == "" {
		return &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("output-dir is required"),
		}
	}
	if config.Alias == "" {
		return &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("alias is required"),
		}
	}
	if config.StorePassword == "" {
		return &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("store password is required (set --store-pass or RELSIGN_STORE_PASS)"),
		}
	}
	if config.KeyPassword == "" {
		// The workflow this replaces generated keystores whose key
		// password equals the store password.
		config.KeyPassword = config.StorePassword
	}

	return nil
}

func runPipeline(cmd *cobra.Command, config *models.Config) error {
	ks, err := keystore.Resolve(config)
	if err != nil {
		return err
	}
	defer ks.Cleanup()

	tool := signer.NewTool(config.ToolPath, config.ToolTimeout)
	tool.SignatureAlg = config.SignatureAlg
	tool.DigestAlg = config.DigestAlg

	var attester pipeline.Attester
	if config.GPGKeyPath != "" {
		gpg, err := attest.NewGPGAttester(config.GPGKeyPath, config.GPGPassphrase)
		if err != nil {
			return &models.PipelineError{
				Stage: models.StageConfig,
				Kind:  models.KindInvalidConfig,
				Path:  config.GPGKeyPath,
				Err:   fmt.Errorf("failed to initialize GPG attester: %w", err),
			}
		}
		attester = gpg
		logrus.Info("GPG attester initialized")
	}

	reference := models.KeystoreReference{
		Path:          ks.Path,
		Alias:         config.Alias,
		StorePassword: config.StorePassword,
		KeyPassword:   config.KeyPassword,
	}

	p := pipeline.New(config, reference, tool, tool, attester)
	run, err := p.Run(cmd.Context())
	if err != nil {
		logrus.Errorf("Run %s failed in state %s", run.ID, run.State)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), run.FinalPath)
	return nil
}
