// Package locator discovers the unsigned release artifact in a build
// output directory.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relsign/relsign/internal/models"
	"github.com/sirupsen/logrus"
)

// UnsignedMarker is the token the build producer embeds in release
// artifact filenames before signing. The signer keeps the filename
// unchanged, so the token survives until the rename stage.
const UnsignedMarker = "unsigned"

// releaseSuffix returns the filename suffix identifying an unsigned
// release artifact of the given kind, e.g. "-release-unsigned.apk".
func releaseSuffix(kind models.ArtifactKind) string {
	return "-release-" + UnsignedMarker + kind.Ext()
}

// Locate searches dir for exactly one unsigned release artifact of the
// given kind. Zero matches and multiple matches are both fatal: a
// rescan cannot change the outcome without external intervention, so
// neither is retried.
func Locate(dir string, kind models.ArtifactKind) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &models.PipelineError{
			Stage: models.StageLocate,
			Kind:  models.KindNotFound,
			Path:  dir,
			Err:   fmt.Errorf("failed to read output directory: %w", err),
		}
	}

	suffix := releaseSuffix(kind)
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return "", &models.PipelineError{
			Stage: models.StageLocate,
			Kind:  models.KindNotFound,
			Path:  dir,
			Err:   fmt.Errorf("no *%s artifact found (did the build step produce output?)", suffix),
		}
	case 1:
		logrus.Debugf("Located unsigned artifact: %s", matches[0])
		return matches[0], nil
	default:
		return "", &models.PipelineError{
			Stage: models.StageLocate,
			Kind:  models.KindAmbiguous,
			Path:  dir,
			Err:   fmt.Errorf("%d *%s artifacts found, expected exactly one: %s",
				len(matches), suffix, strings.Join(matches, ", ")),
		}
	}
}
