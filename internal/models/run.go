package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArtifactKind represents the type of build artifact
type ArtifactKind int

const (
	KindUnknownArtifact ArtifactKind = iota
	KindAPK
	KindAAB
)

// String returns the string representation of ArtifactKind
func (k ArtifactKind) String() string {
	switch k {
	case KindAPK:
		return "apk"
	case KindAAB:
		return "aab"
	default:
		return "unknown"
	}
}

// Ext returns the file extension for the artifact kind, with leading dot
func (k ArtifactKind) Ext() string {
	switch k {
	case KindAPK:
		return ".apk"
	case KindAAB:
		return ".aab"
	default:
		return ""
	}
}

// ParseArtifactKind parses an artifact kind from its flag value
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apk":
		return KindAPK, nil
	case "aab":
		return KindAAB, nil
	default:
		return KindUnknownArtifact, fmt.Errorf("unknown artifact kind %q (want apk or aab)", s)
	}
}

// KeystoreReference points at the signing identity for one run. The
// password fields are secrets: they are held in memory only and must
// never appear in logs or error text.
type KeystoreReference struct {
	Path          string
	Alias         string
	StorePassword string
	KeyPassword   string
}

// SigningResult is the parsed outcome of verifying a signed artifact
type SigningResult struct {
	InputPath    string
	OutputPath   string
	SignatureAlg string
	DigestAlg    string
	Verified     bool
	Warnings     []string
	FatalMarkers []string
}

// RunState is the orchestrator's position in the stage sequence.
// Transitions are strictly sequential; RunFailed absorbs from any
// state and nothing leaves it.
type RunState int

const (
	RunPending RunState = iota
	RunLocated
	RunSigned
	RunVerified
	RunRenamed
	RunDone
	RunFailed
)

// String returns the string representation of RunState
func (s RunState) String() string {
	switch s {
	case RunPending:
		return "Pending"
	case RunLocated:
		return "Located"
	case RunSigned:
		return "Signed"
	case RunVerified:
		return "Verified"
	case RunRenamed:
		return "Renamed"
	case RunDone:
		return "Done"
	case RunFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// StageRecord captures one completed (or failed) stage for diagnostics
type StageRecord struct {
	Stage    Stage
	Started  time.Time
	Duration time.Duration
	Detail   string
	Err      error
}

// PipelineRun is the lifecycle object for a single invocation. It is
// created when the orchestrator starts, mutated as stages complete, and
// discarded after the final report; it is never persisted.
type PipelineRun struct {
	ID           string
	Kind         ArtifactKind
	State        RunState
	StartedAt    time.Time
	UnsignedPath string
	FinalPath    string
	ChecksumPath string
	Verification *SigningResult
	Stages       []StageRecord
}

// NewPipelineRun creates a run with a fresh identity
func NewPipelineRun(kind ArtifactKind) *PipelineRun {
	return &PipelineRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now(),
	}
}

// Record appends a stage record and returns the stage error unchanged,
// so call sites can record and propagate in one statement.
func (r *PipelineRun) Record(stage Stage, started time.Time, detail string, err error) error {
	r.Stages = append(r.Stages, StageRecord{
		Stage:    stage,
		Started:  started,
		Duration: time.Since(started),
		Detail:   detail,
		Err:      err,
	})
	return err
}

// Summary renders the single human-readable result line for the run
func (r *PipelineRun) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s -> %s", r.ID, r.UnsignedPath, r.FinalPath)
	if r.Verification != nil && len(r.Verification.Warnings) > 0 {
		fmt.Fprintf(&b, " (%d advisory warnings: %s)",
			len(r.Verification.Warnings), strings.Join(r.Verification.Warnings, "; "))
	}
	return b.String()
}
