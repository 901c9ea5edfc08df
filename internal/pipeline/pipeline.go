// Package pipeline runs the release-signing sequence: locate the
// unsigned artifact, sign it in place, verify the signature, rename it
// to its final form, and publish integrity data alongside it.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/relsign/relsign/internal/locator"
	"github.com/relsign/relsign/internal/models"
	"github.com/relsign/relsign/internal/renamer"
	"github.com/relsign/relsign/internal/signer"
	"github.com/relsign/relsign/internal/utils"
	"github.com/sirupsen/logrus"
)

// Attester signs the checksum manifest; nil disables attestation
type Attester interface {
	SignDetached(data []byte) ([]byte, error)
}

// Pipeline owns one run from locate through the final report. The
// keystore reference lives only for the duration of that run, and a
// pipeline never shares state with concurrent runs.
type Pipeline struct {
	cfg      *models.Config
	keystore models.KeystoreReference
	signer   signer.Signer
	verifier signer.Verifier
	attester Attester
}

// New assembles a pipeline from its collaborators. The signer and
// verifier are interfaces so tests can substitute canned tool output.
func New(cfg *models.Config, ks models.KeystoreReference, s signer.Signer, v signer.Verifier, attester Attester) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		keystore: ks,
		signer:   s,
		verifier: v,
		attester: attester,
	}
}

// Run drives the stage sequence to completion or the first failure.
// No stage retries: every failure cause is a configuration or
// deterministic input problem that a retry cannot fix. The returned
// run always carries whatever stage records were made, so callers get
// partial diagnostics even on failure.
func (p *Pipeline) Run(ctx context.Context) (*models.PipelineRun, error) {
	run := models.NewPipelineRun(p.cfg.Kind)
	logrus.Infof("Starting release signing run %s (%s)", run.ID, run.Kind)

	if err := p.locate(run); err != nil {
		return p.fail(run, err)
	}
	if err := p.sign(ctx, run); err != nil {
		return p.fail(run, err)
	}
	if err := p.verify(ctx, run); err != nil {
		return p.fail(run, err)
	}
	if err := p.rename(run); err != nil {
		return p.fail(run, err)
	}
	if err := p.publish(run); err != nil {
		return p.fail(run, err)
	}

	run.State = models.RunDone
	logrus.Info(run.Summary())
	return run, nil
}

func (p *Pipeline) fail(run *models.PipelineRun, err error) (*models.PipelineRun, error) {
	run.State = models.RunFailed
	return run, err
}

func (p *Pipeline) locate(run *models.PipelineRun) error {
	started := time.Now()
	path, err := locator.Locate(p.cfg.OutputDir, p.cfg.Kind)
	if err := run.Record(models.StageLocate, started, path, err); err != nil {
		return err
	}
	run.UnsignedPath = path
	run.State = models.RunLocated
	logrus.Infof("Located unsigned artifact: %s", path)

	// Container inspection is advisory: the signer tool produces its
	// own diagnostics for broken containers, and re-signing a signed
	// artifact is permitted.
	info, err := locator.Inspect(path)
	switch {
	case err != nil:
		logrus.Warnf("Artifact %s is not a readable zip container: %v", filepath.Base(path), err)
	case info.HasSignature:
		logrus.Warnf("Artifact %s already carries a signature block, re-signing", filepath.Base(path))
	default:
		logrus.Debugf("Artifact container has %d entries, no signature block", info.Entries)
	}

	return nil
}

func (p *Pipeline) sign(ctx context.Context, run *models.PipelineRun) error {
	started := time.Now()
	err := p.signer.Sign(ctx, run.UnsignedPath, p.keystore)
	if err := run.Record(models.StageSign, started, run.UnsignedPath, err); err != nil {
		return err
	}
	// Signing mutates the artifact in place; the filename still says
	// "unsigned" until the rename stage, by design of the workflow.
	run.State = models.RunSigned
	return nil
}

func (p *Pipeline) verify(ctx context.Context, run *models.PipelineRun) error {
	started := time.Now()
	result, err := p.verifier.Verify(ctx, run.UnsignedPath)
	if err == nil && !result.Verified {
		err = &models.PipelineError{
			Stage: models.StageVerify,
			Kind:  models.KindFailed,
			Path:  run.UnsignedPath,
			Err:   fmt.Errorf("fatal verification markers: %v", result.FatalMarkers),
		}
	}
	if result != nil {
		run.Verification = result
	}
	if err := run.Record(models.StageVerify, started, run.UnsignedPath, err); err != nil {
		return err
	}

	run.State = models.RunVerified
	for _, warning := range result.Warnings {
		logrus.Warnf("Verification advisory: %s", warning)
	}
	logrus.Infof("Signature verified (%s / %s)", result.SignatureAlg, result.DigestAlg)
	return nil
}

func (p *Pipeline) rename(run *models.PipelineRun) error {
	started := time.Now()
	final, err := renamer.Rename(run.Verification)
	if err := run.Record(models.StageRename, started, final, err); err != nil {
		return err
	}
	run.FinalPath = final
	run.Verification.OutputPath = final
	run.State = models.RunRenamed
	return nil
}

// publish writes the checksum manifest next to the final artifact and,
// when an attester is configured, a detached signature over it.
func (p *Pipeline) publish(run *models.PipelineRun) error {
	started := time.Now()
	path, err := p.writeManifest(run.FinalPath)
	if err := run.Record(models.StageAttest, started, path, err); err != nil {
		return err
	}
	run.ChecksumPath = path
	return nil
}

func (p *Pipeline) writeManifest(finalPath string) (string, error) {
	sum, err := utils.CalculateChecksum(finalPath)
	if err != nil {
		return "", &models.PipelineError{
			Stage: models.StageAttest,
			Kind:  models.KindFailed,
			Path:  finalPath,
			Err:   fmt.Errorf("failed to hash artifact: %w", err),
		}
	}

	manifest := []byte(fmt.Sprintf("%s  %s\n", sum.SHA256, filepath.Base(finalPath)))
	manifestPath := finalPath + ".sha256"
	if err := utils.WriteFile(manifestPath, manifest, 0644); err != nil {
		return "", &models.PipelineError{
			Stage: models.StageAttest,
			Kind:  models.KindFailed,
			Path:  manifestPath,
			Err:   fmt.Errorf("failed to write checksum manifest: %w", err),
		}
	}
	logrus.Debugf("Wrote checksum manifest %s", manifestPath)

	if p.attester == nil {
		return manifestPath, nil
	}

	sig, err := p.attester.SignDetached(manifest)
	if err != nil {
		return manifestPath, &models.PipelineError{
			Stage: models.StageAttest,
			Kind:  models.KindFailed,
			Path:  manifestPath,
			Err:   fmt.Errorf("failed to sign checksum manifest: %w", err),
		}
	}
	sigPath := manifestPath + ".asc"
	if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
		return manifestPath, &models.PipelineError{
			Stage: models.StageAttest,
			Kind:  models.KindFailed,
			Path:  sigPath,
			Err:   fmt.Errorf("failed to write manifest signature: %w", err),
		}
	}
	logrus.Infof("Attested checksum manifest: %s", sigPath)

	return manifestPath, nil
}
