package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageExitCodes(t *testing.T) {
	// Callers branch on these; they are part of the CLI contract.
	assert.Equal(t, 1, StageConfig.ExitCode())
	assert.Equal(t, 2, StageLocate.ExitCode())
	assert.Equal(t, 3, StageSign.ExitCode())
	assert.Equal(t, 4, StageVerify.ExitCode())
	assert.Equal(t, 5, StageRename.ExitCode())
	assert.Equal(t, 6, StageAttest.ExitCode())
}

func TestPipelineErrorFormatsStageAndKind(t *testing.T) {
	err := &PipelineError{
		Stage: StageLocate,
		Kind:  KindAmbiguous,
		Path:  "/out",
		Err:   fmt.Errorf("2 matches"),
	}
	assert.Equal(t, "[Locate.Ambiguous] /out: 2 matches", err.Error())

	err.Path = ""
	assert.Equal(t, "[Locate.Ambiguous] 2 matches", err.Error())
}

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &PipelineError{Stage: StageSign, Kind: KindFailed, Err: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain error")))

	wrapped := fmt.Errorf("context: %w", &PipelineError{Stage: StageVerify, Kind: KindFailed})
	assert.Equal(t, 4, ExitCode(wrapped))
}

func TestParseArtifactKind(t *testing.T) {
	kind, err := ParseArtifactKind("apk")
	assert.NoError(t, err)
	assert.Equal(t, KindAPK, kind)

	kind, err = ParseArtifactKind(" AAB ")
	assert.NoError(t, err)
	assert.Equal(t, KindAAB, kind)

	_, err = ParseArtifactKind("ipa")
	assert.Error(t, err)
}
