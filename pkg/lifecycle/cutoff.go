package lifecycle

import "math"

// SurvivorCutoff returns how many of the highest-rated proposals survive the
// transition out of the rating phase for a pool of n active proposals:
// round(1.2 * sqrt(n)), clamped to [2, n].
//
// n=10 -> 4, n=20 -> 5, n=100 -> 12.
func SurvivorCutoff(n int) int {
	if n <= MinActiveProposals {
		return n
	}
	c := int(math.Round(1.2 * math.Sqrt(float64(n))))
	if c < MinActiveProposals {
		c = MinActiveProposals
	}
	if c > n {
		c = n
	}
	return c
}
