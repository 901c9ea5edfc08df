package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tool settings. The signer tool must understand jar-format
// containers, which covers both APK and AAB artifacts.
const (
	DefaultToolPath    = "jarsigner"
	DefaultToolTimeout = 10 * time.Minute
)

// Config contains configuration for one pipeline invocation
type Config struct {
	// Input
	OutputDir string
	Kind      ArtifactKind

	// Signing identity
	KeystorePath   string
	KeystoreBase64 string
	Alias          string
	StorePassword  string
	KeyPassword    string

	// External tool
	ToolPath     string
	ToolTimeout  time.Duration
	SignatureAlg string
	DigestAlg    string

	// Release attestation (optional)
	GPGKeyPath    string
	GPGPassphrase string
}

// fileConfig is the YAML config file shape. Only non-secret settings
// can live in the file; secrets come from flags or the environment.
type fileConfig struct {
	ToolPath     string `yaml:"tool_path"`
	ToolTimeout  string `yaml:"tool_timeout"`
	SignatureAlg string `yaml:"signature_alg"`
	DigestAlg    string `yaml:"digest_alg"`
	OutputDir    string `yaml:"output_dir"`
	KeystorePath string `yaml:"keystore_path"`
	Alias        string `yaml:"alias"`
	GPGKeyPath   string `yaml:"gpg_key_path"`
}

// LoadConfigFile overlays settings from a YAML file onto the config.
// Flag values already set take precedence over file values.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if c.ToolPath == DefaultToolPath && fc.ToolPath != "" {
		c.ToolPath = fc.ToolPath
	}
	if c.ToolTimeout == DefaultToolTimeout && fc.ToolTimeout != "" {
		d, err := time.ParseDuration(fc.ToolTimeout)
		if err != nil {
			return fmt.Errorf("invalid tool_timeout in config file: %w", err)
		}
		c.ToolTimeout = d
	}
	if c.SignatureAlg == "" {
		c.SignatureAlg = fc.SignatureAlg
	}
	if c.DigestAlg == "" {
		c.DigestAlg = fc.DigestAlg
	}
	if c.OutputDir == "" {
		c.OutputDir = fc.OutputDir
	}
	if c.KeystorePath == "" {
		c.KeystorePath = fc.KeystorePath
	}
	if c.Alias == "" {
		c.Alias = fc.Alias
	}
	if c.GPGKeyPath == "" {
		c.GPGKeyPath = fc.GPGKeyPath
	}

	return nil
}

// ReadSecretsFromEnv fills secret fields from the environment when the
// corresponding flags were not set
func (c *Config) ReadSecretsFromEnv() {
	if c.KeystoreBase64 == "" {
		c.KeystoreBase64 = os.Getenv("RELSIGN_KEYSTORE_B64")
	}
	if c.StorePassword == "" {
		c.StorePassword = os.Getenv("RELSIGN_STORE_PASS")
	}
	if c.KeyPassword == "" {
		c.KeyPassword = os.Getenv("RELSIGN_KEY_PASS")
	}
	if c.GPGPassphrase == "" {
		c.GPGPassphrase = os.Getenv("RELSIGN_GPG_PASSPHRASE")
	}
}
