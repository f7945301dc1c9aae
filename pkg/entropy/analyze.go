package entropy

import (
	"fmt"
	"math"
)

// Quality tags for a finished extraction.
const (
	QualityCertified = "certified"
	QualityDegraded  = "degraded"
)

// Analysis holds the correlation statistics for one complete dispatch.
type Analysis struct {
	// Expectations maps each basis label to its expectation value.
	Expectations map[string]float64
	// Sigma is the population standard deviation of the nine expectation
	// values, the correlation-diversity score.
	Sigma float64
}

// QualityFor maps a diversity score to its quality tag against the
// configured threshold.
func QualityFor(sigma, threshold float64) string {
	if sigma >= threshold {
		return QualityCertified
	}
	return QualityDegraded
}

// Analyze computes per-basis expectation values and the diversity score σ
// from a complete basis-result set. Malformed input (missing basis, bad
// counts, mismatched shot totals) is an invariant violation reported as
// *InternalError; well-formed input never fails.
func Analyze(results map[string]BasisResult, shots int) (Analysis, error) {
	if shots <= 0 {
		return Analysis{}, &InternalError{Msg: fmt.Sprintf("non-positive shot count %d", shots)}
	}

	expectations := make(map[string]float64, len(Bases))
	for _, basis := range Bases {
		result, ok := results[basis]
		if !ok {
			return Analysis{}, &InternalError{Msg: fmt.Sprintf("basis %s missing from result set", basis)}
		}
		if err := result.Counts.Validate(shots); err != nil {
			return Analysis{}, &InternalError{Msg: fmt.Sprintf("basis %s: %v", basis, err)}
		}
		expectations[basis] = Expectation(result.Counts, shots)
	}
	if len(results) != len(Bases) {
		return Analysis{}, &InternalError{Msg: fmt.Sprintf("result set has %d entries, want %d", len(results), len(Bases))}
	}

	var mean float64
	for _, e := range expectations {
		mean += e
	}
	mean /= float64(len(Bases))

	// Population variance: divide by the basis count, not count-1.
	var sumSq float64
	for _, e := range expectations {
		d := e - mean
		sumSq += d * d
	}
	sigma := math.Sqrt(sumSq / float64(len(Bases)))

	return Analysis{Expectations: expectations, Sigma: sigma}, nil
}
