package signer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/relsign/relsign/internal/models"
	"github.com/sirupsen/logrus"
)

// Password env var names for the external tool. jarsigner reads
// -storepass:env / -keypass:env values from the child environment, so
// the secrets never appear in argv or process listings.
const (
	storePassEnv = "RELSIGN_TOOL_STOREPASS"
	keyPassEnv   = "RELSIGN_TOOL_KEYPASS"
)

// Failure signatures the tool emits for bad credentials. Matching any
// of these classifies the failure as WrongCredentials instead of a
// generic signing failure.
var credentialFailures = []string{
	"keystore password was incorrect",
	"Cannot recover key",
	"password was incorrect",
	"failed to decrypt safe contents entry",
}

// Tool wraps the external jar signing executable as the Signer and
// Verifier for one pipeline run.
type Tool struct {
	Path         string
	Timeout      time.Duration
	SignatureAlg string
	DigestAlg    string
}

// NewTool creates a tool adapter with defaults filled in
func NewTool(path string, timeout time.Duration) *Tool {
	if path == "" {
		path = models.DefaultToolPath
	}
	if timeout == 0 {
		timeout = models.DefaultToolTimeout
	}
	return &Tool{Path: path, Timeout: timeout}
}

// Sign invokes the external tool to embed a signature block into the
// artifact in place. The filename keeps its "unsigned" marker; the
// rename stage handles that separately.
func (t *Tool) Sign(ctx context.Context, path string, ks models.KeystoreReference) error {
	bin, err := exec.LookPath(t.Path)
	if err != nil {
		return &models.PipelineError{
			Stage: models.StageSign,
			Kind:  models.KindToolUnavailable,
			Path:  t.Path,
			Err:   fmt.Errorf("signer tool not found: %w", err),
		}
	}

	args := []string{
		"-keystore", ks.Path,
		"-storepass:env", storePassEnv,
		"-keypass:env", keyPassEnv,
	}
	if t.SignatureAlg != "" {
		args = append(args, "-sigalg", t.SignatureAlg)
	}
	if t.DigestAlg != "" {
		args = append(args, "-digestalg", t.DigestAlg)
	}
	args = append(args, path, ks.Alias)

	logrus.Debugf("Signing %s with alias %q", path, ks.Alias)

	output, err := t.run(ctx, bin, args, []string{
		storePassEnv + "=" + ks.StorePassword,
		keyPassEnv + "=" + ks.KeyPassword,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &models.PipelineError{
				Stage: models.StageSign,
				Kind:  models.KindFailed,
				Path:  path,
				Err:   fmt.Errorf("signer tool timed out after %v", t.Timeout),
			}
		}
		kind := models.KindFailed
		if containsAny(output, credentialFailures) {
			kind = models.KindWrongCredentials
		}
		// The tool's raw diagnostic text is the only actionable
		// information the operator gets; never swallow it.
		return &models.PipelineError{
			Stage: models.StageSign,
			Kind:  kind,
			Path:  path,
			Err:   fmt.Errorf("signer tool failed: %w\n%s", err, strings.TrimSpace(output)),
		}
	}

	logrus.Infof("Signed %s", path)
	return nil
}

// Verify invokes the external tool's verification mode and parses its
// free-form output into a structured result.
func (t *Tool) Verify(ctx context.Context, path string) (*models.SigningResult, error) {
	bin, err := exec.LookPath(t.Path)
	if err != nil {
		return nil, &models.PipelineError{
			Stage: models.StageVerify,
			Kind:  models.KindToolUnavailable,
			Path:  t.Path,
			Err:   fmt.Errorf("verifier tool not found: %w", err),
		}
	}

	logrus.Debugf("Verifying %s", path)

	output, err := t.run(ctx, bin, []string{"-verify", "-verbose", path}, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &models.PipelineError{
				Stage: models.StageVerify,
				Kind:  models.KindFailed,
				Path:  path,
				Err:   fmt.Errorf("verifier tool timed out after %v", t.Timeout),
			}
		}
		// Some tool versions exit non-zero while still printing a
		// parseable verdict. Honor a fatal verdict in the output;
		// anything else from a failed process is a tool failure, not
		// a verification pass.
		if failed := ParseVerification(output); !failed.Verified {
			failed.InputPath = path
			return failed, nil
		}
		return nil, &models.PipelineError{
			Stage: models.StageVerify,
			Kind:  models.KindFailed,
			Path:  path,
			Err:   fmt.Errorf("verifier tool failed: %w\n%s", err, strings.TrimSpace(output)),
		}
	}

	result := ParseVerification(output)
	result.InputPath = path
	return result, nil
}

// run executes the tool with a bounded timeout, merging stdout and
// stderr: the tool splits diagnostics across both inconsistently.
func (t *Tool) run(ctx context.Context, bin string, args, extraEnv []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	if extraEnv != nil {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if runCtx.Err() != nil {
		return buf.String(), runCtx.Err()
	}
	return buf.String(), err
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
