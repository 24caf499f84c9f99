package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSurvivorCutoff(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 2},
		{5, 3},
		{10, 4},
		{20, 5},
		{100, 12},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SurvivorCutoff(tc.n), "n=%d", tc.n)
	}
}

func TestSurvivorCutoffNeverExceedsPool(t *testing.T) {
	for n := 2; n <= 200; n++ {
		c := SurvivorCutoff(n)
		assert.GreaterOrEqual(t, c, 2, "n=%d", n)
		assert.LessOrEqual(t, c, n, "n=%d", n)
	}
}
