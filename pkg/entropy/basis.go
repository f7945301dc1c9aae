// Package entropy implements the randomness pipeline: concurrent basis
// dispatch, correlation analysis, and extraction of a fixed-length key from
// the measured outcome statistics.
package entropy

import (
	"github.com/shemshallah/quantum-foam-rng/pkg/provider"
)

// Bases lists the nine two-qubit measurement configurations, each label
// naming the measurement axis for qubit A and qubit B.
var Bases = []string{"ZZ", "XX", "YY", "ZX", "XZ", "ZY", "YZ", "XY", "YX"}

// ReferenceBasis is the configuration whose raw outcomes feed the debiasing
// stage of the primary extraction path.
const ReferenceBasis = "ZZ"

// BasisResult holds the outcome statistics of one measurement configuration.
type BasisResult struct {
	Basis       string                 `json:"basis"`
	Counts      provider.OutcomeCounts `json:"outcome_counts"`
	Expectation float64                `json:"expectation"`
}

// Expectation computes the parity-weighted average outcome for one basis:
// (N00 + N11 - N01 - N10) / shots, in [-1, 1].
func Expectation(counts provider.OutcomeCounts, shots int) float64 {
	same := counts[provider.Outcome00] + counts[provider.Outcome11]
	diff := counts[provider.Outcome01] + counts[provider.Outcome10]
	return float64(same-diff) / float64(shots)
}
