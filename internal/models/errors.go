package models

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage an error originated from
type Stage int

const (
	StageConfig Stage = iota
	StageLocate
	StageSign
	StageVerify
	StageRename
	StageAttest
)

// String returns the string representation of Stage
func (s Stage) String() string {
	switch s {
	case StageConfig:
		return "Config"
	case StageLocate:
		return "Locate"
	case StageSign:
		return "Sign"
	case StageVerify:
		return "Verify"
	case StageRename:
		return "Rename"
	case StageAttest:
		return "Attest"
	default:
		return "Unknown"
	}
}

// ExitCode returns the process exit code for a failure in this stage.
// Callers branch on these, so each stage keeps a stable distinct code.
func (s Stage) ExitCode() int {
	switch s {
	case StageLocate:
		return 2
	case StageSign:
		return 3
	case StageVerify:
		return 4
	case StageRename:
		return 5
	case StageAttest:
		return 6
	default:
		return 1
	}
}

// Kind categorizes failures within a stage
type Kind int

const (
	KindInvalidConfig Kind = iota
	KindNotFound
	KindAmbiguous
	KindToolUnavailable
	KindFailed
	KindWrongCredentials
	KindNotVerified
	KindConflict
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindNotFound:
		return "NotFound"
	case KindAmbiguous:
		return "Ambiguous"
	case KindToolUnavailable:
		return "ToolUnavailable"
	case KindFailed:
		return "Failed"
	case KindWrongCredentials:
		return "WrongCredentials"
	case KindNotVerified:
		return "NotVerified"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// PipelineError represents a terminal error during a pipeline run.
// Every kind is a configuration or deterministic input problem, so no
// stage retries; the stage and kind are surfaced verbatim to the caller.
type PipelineError struct {
	Stage Stage
	Kind  Kind
	Path  string
	Err   error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s.%s] %s: %v", e.Stage, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s.%s] %v", e.Stage, e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to a process exit code. Non-pipeline errors
// fall back to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Stage.ExitCode()
	}
	return 1
}
