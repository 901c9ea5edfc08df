// Package renamer moves a verified artifact to its final "signed"
// filename.
package renamer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relsign/relsign/internal/models"
	"github.com/relsign/relsign/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	unsignedToken = "unsigned"
	signedToken   = "signed"
)

// FinalPath computes the post-rename path for a signed artifact. Only
// the filename changes; directory and extension stay put.
func FinalPath(path string) string {
	dir, base := filepath.Split(path)
	return dir + strings.Replace(base, unsignedToken, signedToken, 1)
}

// Rename moves a verified artifact to its final name, replacing the
// "unsigned" marker token in the filename. Verification is a hard
// precondition: renaming an unverified artifact would ship a falsely
// labeled file.
//
// Idempotent: a path whose filename no longer carries the marker is
// treated as already renamed, and a pre-existing byte-identical final
// path succeeds without error. A pre-existing final path with
// different content is a conflict, never an overwrite.
func Rename(result *models.SigningResult) (string, error) {
	if result == nil || !result.Verified {
		path := ""
		if result != nil {
			path = result.InputPath
		}
		return "", &models.PipelineError{
			Stage: models.StageRename,
			Kind:  models.KindNotVerified,
			Path:  path,
			Err:   fmt.Errorf("refusing to rename an unverified artifact"),
		}
	}

	path := result.InputPath
	base := filepath.Base(path)
	if !strings.Contains(base, unsignedToken) {
		// Already renamed; a rerun converges without touching disk.
		logrus.Debugf("Rename is a no-op, %s carries no %q marker", base, unsignedToken)
		return path, nil
	}

	final := FinalPath(path)
	if _, err := os.Stat(final); err == nil {
		same, cmpErr := utils.SameContent(path, final)
		if cmpErr != nil {
			return "", &models.PipelineError{
				Stage: models.StageRename,
				Kind:  models.KindConflict,
				Path:  final,
				Err:   fmt.Errorf("final path exists and cannot be compared: %w", cmpErr),
			}
		}
		if !same {
			return "", &models.PipelineError{
				Stage: models.StageRename,
				Kind:  models.KindConflict,
				Path:  final,
				Err:   fmt.Errorf("final path exists with different content"),
			}
		}
		// Byte-identical leftover from an earlier run; the rename
		// below overwrites it atomically with the same bytes.
	} else if !os.IsNotExist(err) {
		return "", &models.PipelineError{
			Stage: models.StageRename,
			Kind:  models.KindConflict,
			Path:  final,
			Err:   fmt.Errorf("cannot stat final path: %w", err),
		}
	}

	// Same-directory rename, atomic on every platform we target, so
	// cancellation can never leave a half-renamed artifact behind.
	if err := os.Rename(path, final); err != nil {
		return "", &models.PipelineError{
			Stage: models.StageRename,
			Kind:  models.KindConflict,
			Path:  final,
			Err:   fmt.Errorf("rename failed: %w", err),
		}
	}

	logrus.Infof("Renamed %s -> %s", filepath.Base(path), filepath.Base(final))
	return final, nil
}
