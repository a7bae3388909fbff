package devig

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Tolerance is the accepted distance of Σp^k from 1
	Tolerance = 1e-10
	// MaxIterations bounds the bisection
	MaxIterations = 100

	// upper bracket doublings before giving up; 2^64 is far past any real price
	maxBracketDoublings = 64
)

var (
	// ErrNoOdds is returned for an empty quote set
	ErrNoOdds = errors.New("no odds to de-vig")
	// ErrInvalidOdds is returned for decimal odds <= 1, NaN or Inf
	ErrInvalidOdds = errors.New("invalid decimal odds")
)

// Result holds the de-vigged view of one market's simultaneous quotes
type Result struct {
	RawProbabilities []float64
	Probabilities    []float64 // vig-free, same order as input
	DecimalOdds      []float64 // 1 / Probabilities[i]
	Exponent         float64   // k in Σp^k = 1; 1 on pass-through
	Overround        float64   // Σp - 1
	PassThrough      bool
}

// ImpliedProbability converts decimal odds to implied probability
// Example: 2.50 odds = 1/2.50 = 0.40
func ImpliedProbability(decimalOdds float64) float64 {
	return 1 / decimalOdds
}

// DecimalOdds converts a probability back to decimal odds
func DecimalOdds(probability float64) float64 {
	return 1 / probability
}

// Devig removes the over-round from a set of decimal odds using the
// constant-exponent (power) method: find k such that Σ p_i^k = 1 and
// report p_i^k. Unlike proportional normalization this keeps the
// favorite/underdog skew of the book.
//
// When Σp <= 1 nothing is removed and the raw probabilities pass through.
func Devig(odds []float64) (*Result, error) {
	if len(odds) == 0 {
		return nil, ErrNoOdds
	}

	raw := make([]float64, len(odds))
	total := 0.0
	for i, o := range odds {
		if math.IsNaN(o) || math.IsInf(o, 0) || o <= 1 {
			return nil, fmt.Errorf("%w: %v at index %d", ErrInvalidOdds, o, i)
		}
		raw[i] = ImpliedProbability(o)
		total += raw[i]
	}

	result := &Result{
		RawProbabilities: raw,
		Probabilities:    make([]float64, len(odds)),
		DecimalOdds:      make([]float64, len(odds)),
		Overround:        total - 1,
	}

	if total <= 1 {
		copy(result.Probabilities, raw)
		copy(result.DecimalOdds, odds)
		result.Exponent = 1
		result.PassThrough = true
		return result, nil
	}

	k, err := solveExponent(raw)
	if err != nil {
		return nil, err
	}

	result.Exponent = k
	for i, p := range raw {
		fair := math.Pow(p, k)
		result.Probabilities[i] = fair
		result.DecimalOdds[i] = DecimalOdds(fair)
	}

	return result, nil
}

// solveExponent bisects for k with Σp^k = 1. Every p is in (0,1), so Σp^k
// is strictly decreasing in k; Σp^1 > 1 puts the root above 1.
func solveExponent(probs []float64) (float64, error) {
	low, high := 1.0, 2.0
	for i := 0; powerSum(probs, high) > 1; i++ {
		if i >= maxBracketDoublings {
			return 0, fmt.Errorf("failed to bracket de-vig exponent above %v", high)
		}
		low = high
		high *= 2
	}

	mid := (low + high) / 2
	for i := 0; i < MaxIterations; i++ {
		mid = (low + high) / 2
		sum := powerSum(probs, mid)

		if math.Abs(sum-1) < Tolerance {
			break
		}
		if sum > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	return mid, nil
}

func powerSum(probs []float64, k float64) float64 {
	sum := 0.0
	for _, p := range probs {
		sum += math.Pow(p, k)
	}
	return sum
}

// Overround returns Σ(1/odds) - 1 without validating the input
func Overround(odds []float64) float64 {
	total := 0.0
	for _, o := range odds {
		total += ImpliedProbability(o)
	}
	return total - 1
}
