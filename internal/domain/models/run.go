package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies which pipeline stage produced a run
type Stage string

const (
	StageMatching   Stage = "matching"
	StageCascade    Stage = "cascade"
	StageSettlement Stage = "settlement"
)

// Verdict is the outcome of a reconciliation run
type Verdict string

const (
	VerdictValidated          Verdict = "validated"
	VerdictDivergent          Verdict = "divergent"
	VerdictAcquirerMismatch   Verdict = "acquirer_mismatch"
	VerdictDivergenceAccepted Verdict = "divergence_accepted"
	VerdictApplied            Verdict = "applied"
)

// Advances reports whether the verdict allows Stage 3 to proceed
func (v Verdict) Advances() bool {
	return v == VerdictValidated || v == VerdictDivergenceAccepted
}

// ReconciliationRun is one append-only audit record per stage execution.
// Checksum is a SHA-256 over the canonical input so that reprocessing
// identical files can be detected instead of duplicating the trail.
type ReconciliationRun struct {
	ID            uuid.UUID  `json:"id"`
	Stage         Stage      `json:"stage"`
	AcquirerID    string     `json:"acquirer_id"`
	ReferenceDate time.Time  `json:"reference_date"`
	InputChecksum string     `json:"input_checksum"`
	Verdict       Verdict    `json:"verdict"`
	Divergences   []byte     `json:"divergences"` // JSON-encoded divergence list
	Summary       []byte     `json:"summary"`     // JSON-encoded stage-specific summary
	Version       int32      `json:"version"`
	SupersedesID  *uuid.UUID `json:"supersedes_id"`
	InitiatedBy   string     `json:"initiated_by"`
	CreatedAt     time.Time  `json:"created_at"`
}
