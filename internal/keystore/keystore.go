// Package keystore resolves the signing keystore for a run, decoding
// base64-delivered keystore bytes into a restricted temp file when no
// on-disk keystore is provided.
package keystore

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/relsign/relsign/internal/models"
	"github.com/sirupsen/logrus"
)

// Materialized is a keystore available on disk for the duration of one
// run. Temporary files are created with 0600 permissions and removed
// by Cleanup; caller-provided paths are left untouched.
type Materialized struct {
	Path      string
	temporary bool
}

// Resolve produces an on-disk keystore from the run configuration.
// A configured path wins over base64 bytes. The base64 payload is a
// secret: decode errors never include the payload itself.
func Resolve(cfg *models.Config) (*Materialized, error) {
	if cfg.KeystorePath != "" {
		if _, err := os.Stat(cfg.KeystorePath); err != nil {
			return nil, &models.PipelineError{
				Stage: models.StageConfig,
				Kind:  models.KindInvalidConfig,
				Path:  cfg.KeystorePath,
				Err:   fmt.Errorf("keystore not readable: %w", err),
			}
		}
		return &Materialized{Path: cfg.KeystorePath}, nil
	}

	if cfg.KeystoreBase64 == "" {
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("no keystore configured (set --keystore or RELSIGN_KEYSTORE_B64)"),
		}
	}

	raw, err := base64.StdEncoding.DecodeString(cfg.KeystoreBase64)
	if err != nil {
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("keystore base64 decode failed: %w", err),
		}
	}

	f, err := os.CreateTemp("", "relsign-keystore-*.jks")
	if err != nil {
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Err:   fmt.Errorf("failed to create keystore temp file: %w", err),
		}
	}

	if err := f.Chmod(0600); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Path:  f.Name(),
			Err:   fmt.Errorf("failed to restrict keystore permissions: %w", err),
		}
	}

	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Path:  f.Name(),
			Err:   fmt.Errorf("failed to write keystore: %w", err),
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, &models.PipelineError{
			Stage: models.StageConfig,
			Kind:  models.KindInvalidConfig,
			Path:  f.Name(),
			Err:   fmt.Errorf("failed to close keystore: %w", err),
		}
	}

	logrus.Debugf("Keystore materialized at %s (%d bytes)", f.Name(), len(raw))
	return &Materialized{Path: f.Name(), temporary: true}, nil
}

// Cleanup removes a temporary keystore from disk. Safe to call on
// caller-provided keystores, which it leaves alone.
func (m *Materialized) Cleanup() {
	if m == nil || !m.temporary {
		return
	}
	if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to remove temporary keystore %s: %v", m.Path, err)
	}
}
