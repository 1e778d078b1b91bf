package magnetism

import (
	"math/rand"
	"time"
)

// DefaultMaxAttempts bounds the rejected draws per structure. The sampling is
// rejection-based, so a small moment vector can exhaust its distinct
// enumerations long before the target count; the bound keeps that case finite.
const DefaultMaxAttempts = 100

// Enumerator produces randomized antiferromagnetic sign-flip enumerations of
// a ferromagnetic reference moment vector.
type Enumerator struct {
	rng *rand.Rand
}

// NewEnumerator returns an enumerator with a time-seeded random source.
// Re-running the workflow yields different enumerations.
func NewEnumerator() *Enumerator {
	return &Enumerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededEnumerator returns an enumerator with a fixed seed, for tests.
func NewSeededEnumerator(seed int64) *Enumerator {
	return &Enumerator{rng: rand.New(rand.NewSource(seed))}
}

// Enumerate draws up to target pairwise-distinct antiferromagnetic moment
// vectors. Each attempt flips the sign of every reference entry independently
// with probability 1/2. A candidate equal to the reference (the ferromagnetic
// configuration) or to an already accepted candidate is rejected and consumes
// one attempt. Acceptance does not consume attempts.
//
// The result may hold fewer than target vectors when maxAttempts rejections
// occur first; that is a partial result, not an error.
func (e *Enumerator) Enumerate(reference []float64, target, maxAttempts int) [][]float64 {
	accepted := make([][]float64, 0, target)
	attempts := maxAttempts
	for len(accepted) < target && attempts > 0 {
		candidate := e.flip(reference)
		if vectorsEqual(candidate, reference) || containsVector(accepted, candidate) {
			attempts--
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted
}

func (e *Enumerator) flip(reference []float64) []float64 {
	candidate := make([]float64, len(reference))
	for i, m := range reference {
		if m == 0 {
			// Keep zeros positive so emitted files never show "-0".
			continue
		}
		if e.rng.Intn(2) == 0 {
			candidate[i] = -m
		} else {
			candidate[i] = m
		}
	}
	return candidate
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsVector(set [][]float64, v []float64) bool {
	for _, member := range set {
		if vectorsEqual(member, v) {
			return true
		}
	}
	return false
}
