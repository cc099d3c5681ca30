package regime

import (
	"fmt"
	"math/rand"
)

// Mixture generates a binary series of length n governed by a binomial
// mixture model: success probability p1 before breakpoint, p2 from
// breakpoint onward. The breakpoint must lie strictly inside the series.
func Mixture(rng *rand.Rand, p1, p2 float64, breakpoint, n int) ([]int, error) {
	if breakpoint <= 0 || breakpoint >= n {
		return nil, fmt.Errorf("breakpoint must be between 1 and %d, got %d", n-1, breakpoint)
	}
	out := make([]int, n)
	for i := range out {
		p := p1
		if i >= breakpoint {
			p = p2
		}
		if rng.Float64() <= p {
			out[i] = 1
		}
	}
	return out, nil
}
