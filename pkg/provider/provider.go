// Package provider holds the narrow client contract to the external
// measurement provider: request/response types, transport, and response
// validation. No circuit semantics live here.
package provider

import (
	"context"
	"fmt"
)

// Outcome labels for one two-qubit measurement.
const (
	Outcome00 = "00"
	Outcome01 = "01"
	Outcome10 = "10"
	Outcome11 = "11"
)

// Outcomes lists the four possible two-qubit outcomes in canonical order.
var Outcomes = []string{Outcome00, Outcome01, Outcome10, Outcome11}

// MeasurementSpec is a self-describing request for one measurement run:
// prepare the entangled pair at the given angle, measure both qubits in the
// given basis, repeat for the given number of shots.
type MeasurementSpec struct {
	AngleDeg float64 `json:"angle_deg"`
	Basis    string  `json:"basis"`
	Shots    int     `json:"shots"`
}

// OutcomeCounts maps each two-qubit outcome to its shot count.
type OutcomeCounts map[string]int

// Total returns the sum of all outcome counts.
func (c OutcomeCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Validate checks that counts are non-negative, cover only known outcomes,
// and sum to the expected shot count.
func (c OutcomeCounts) Validate(shots int) error {
	for outcome, n := range c {
		if !isKnownOutcome(outcome) {
			return fmt.Errorf("unknown outcome %q in counts", outcome)
		}
		if n < 0 {
			return fmt.Errorf("negative count %d for outcome %q", n, outcome)
		}
	}
	if total := c.Total(); total != shots {
		return fmt.Errorf("counts sum to %d, expected %d shots", total, shots)
	}
	return nil
}

func isKnownOutcome(outcome string) bool {
	for _, o := range Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// Client is the measurement provider contract. Implementations must be safe
// for concurrent use; the dispatcher issues up to nine calls at once.
type Client interface {
	// Measure runs the requested measurement and returns the outcome
	// counts. A successful response always satisfies
	// counts.Validate(spec.Shots).
	Measure(ctx context.Context, spec MeasurementSpec) (OutcomeCounts, error)
}
