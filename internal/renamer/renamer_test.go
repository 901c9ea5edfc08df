package renamer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relsign/relsign/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedResult(path string) *models.SigningResult {
	return &models.SigningResult{InputPath: path, Verified: true}
}

func TestFinalPath(t *testing.T) {
	assert.Equal(t, "/out/app-release-signed.apk", FinalPath("/out/app-release-unsigned.apk"))
	assert.Equal(t, "/out/app-release-signed.aab", FinalPath("/out/app-release-unsigned.aab"))
}

func TestRenameHappyPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app-release-unsigned.apk")
	require.NoError(t, os.WriteFile(path, []byte("signed bytes"), 0644))

	final, err := Rename(verifiedResult(path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app-release-signed.apk"), final)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "unsigned path should be gone")
	_, err = os.Stat(final)
	assert.NoError(t, err)
}

func TestRenameRefusesUnverified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app-release-unsigned.apk")
	require.NoError(t, os.WriteFile(path, []byte("signed bytes"), 0644))

	_, err := Rename(&models.SigningResult{InputPath: path, Verified: false})
	require.Error(t, err)

	var perr *models.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.StageRename, perr.Stage)
	assert.Equal(t, models.KindNotVerified, perr.Kind)

	// Refusal must not touch the filesystem.
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestRenameRefusesNilResult(t *testing.T) {
	_, err := Rename(nil)
	var perr *models.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.KindNotVerified, perr.Kind)
}

func TestRenameIdempotentOnRenamedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app-release-signed.apk")
	require.NoError(t, os.WriteFile(path, []byte("signed bytes"), 0644))

	final, err := Rename(verifiedResult(path))
	require.NoError(t, err)
	assert.Equal(t, path, final)
}

func TestRenameIdenticalTargetSucceeds(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app-release-unsigned.apk")
	dst := filepath.Join(dir, "app-release-signed.apk")
	require.NoError(t, os.WriteFile(src, []byte("same bytes"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("same bytes"), 0644))

	final, err := Rename(verifiedResult(src))
	require.NoError(t, err)
	assert.Equal(t, dst, final)
}

func TestRenameConflictOnDifferingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app-release-unsigned.apk")
	dst := filepath.Join(dir, "app-release-signed.apk")
	require.NoError(t, os.WriteFile(src, []byte("new build"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old build!"), 0644))

	_, err := Rename(verifiedResult(src))
	require.Error(t, err)

	var perr *models.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.KindConflict, perr.Kind)

	// No silent overwrite: both files keep their content.
	data, readErr := os.ReadFile(dst)
	require.NoError(t, readErr)
	assert.Equal(t, "old build!", string(data))
}

func TestRenameOnlyFirstTokenReplaced(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "unsigned-app-release-unsigned.apk")
	require.NoError(t, os.WriteFile(src, []byte("bytes"), 0644))

	final, err := Rename(verifiedResult(src))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "signed-app-release-unsigned.apk"), final)
}
