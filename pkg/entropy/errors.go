package entropy

import (
	"fmt"
	"strings"
)

// MeasurementProviderError reports that one or more basis measurements
// exhausted their retry budget. It is fatal to the job that issued them.
type MeasurementProviderError struct {
	// Bases are the labels whose requests ultimately failed.
	Bases []string
	// Err is the underlying failure from the first exhausted basis.
	Err error
}

func (e *MeasurementProviderError) Error() string {
	return fmt.Sprintf("measurement provider failed for bases [%s]: %v",
		strings.Join(e.Bases, ", "), e.Err)
}

func (e *MeasurementProviderError) Unwrap() error { return e.Err }

// InsufficientEntropyError reports that the primary extraction path cannot
// satisfy the leftover-hash bound for the target key length. The caller
// recovers by switching to the fallback path; it is fatal only when the
// fallback itself has no input.
type InsufficientEntropyError struct {
	// Need is the number of min-entropy bits required for the target length.
	Need int
	// Have is the number of min-entropy bits estimated to be available.
	Have int
	// Stage names where the shortfall was detected.
	Stage string
}

func (e *InsufficientEntropyError) Error() string {
	return fmt.Sprintf("insufficient entropy at %s stage: need %d bits, have %d", e.Stage, e.Need, e.Have)
}

// InternalError reports a programming-invariant violation, such as a
// malformed basis-result set reaching the analyzer. Always fatal.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}
