// Package jobs owns the job lifecycle: creation, the linear processing
// state machine, the in-memory store the polling API reads from, and
// eviction of finished records.
package jobs

import (
	"time"

	"github.com/shemshallah/quantum-foam-rng/pkg/entropy"
)

// Status is a job's position in the processing state machine. Transitions
// run strictly forward; Completed and Failed are terminal.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDispatching Status = "dispatching"
	StatusAnalyzing   Status = "analyzing"
	StatusExtracting  Status = "extracting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is the payload of a completed job.
type Result struct {
	// KeyHex is the output key, hex encoded.
	KeyHex string `json:"output_key"`

	// Sigma is the correlation-diversity score from analysis.
	Sigma float64 `json:"sigma"`

	// Quality is "certified" or "degraded"; QualityReason names the
	// degradation cause when present.
	Quality       string `json:"quality"`
	QualityReason string `json:"quality_reason,omitempty"`

	GenerationTimeSeconds float64 `json:"generation_time_seconds"`

	// Measurement accounting.
	BasesUsed     int `json:"bases_used"`
	ShotsPerBasis int `json:"shots_per_basis"`
	TotalShots    int `json:"total_shots"`

	// Extraction accounting: raw bits in, debiased bits surviving, and
	// the output-to-raw compression ratio.
	RawBits         int     `json:"raw_bits"`
	DebiasedBits    int     `json:"debiased_bits"`
	ExtractionRatio float64 `json:"extraction_ratio"`

	// RandomnessScore is the fraction of one-bits in the key; 0.5 ideal.
	RandomnessScore float64 `json:"randomness_score"`

	// Certificate is attached only to certified keys.
	Certificate *entropy.Certificate `json:"certificate,omitempty"`
}

// Job is one unit of work and its outcome. Records handed out of the store
// are immutable snapshots; every update replaces the whole record.
type Job struct {
	ID       string  `json:"id"`
	AngleDeg float64 `json:"angle_deg"`
	Status   Status  `json:"status"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// BasisResults is populated all-or-nothing once dispatch succeeds.
	BasisResults map[string]entropy.BasisResult `json:"-"`

	// Sigma is set once analysis succeeds.
	Sigma float64 `json:"sigma,omitempty"`

	// Result is present only on StatusCompleted.
	Result *Result `json:"result,omitempty"`

	// FailureReason is present only on StatusFailed.
	FailureReason string `json:"failure_reason,omitempty"`
}
