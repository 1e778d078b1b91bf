package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupercellMultiplier(t *testing.T) {
	cases := []struct {
		sites int
		want  [3]int
	}{
		{1, [3]int{4, 4, 4}},
		{2, [3]int{4, 4, 4}},
		{3, [3]int{3, 3, 3}},
		{4, [3]int{3, 3, 3}},
		{5, [3]int{3, 3, 2}},
		{7, [3]int{3, 3, 2}},
		{8, [3]int{3, 2, 2}},
		{10, [3]int{3, 2, 2}},
		{16, [3]int{2, 2, 2}},
		{17, [3]int{2, 2, 1}},
		{32, [3]int{2, 2, 1}},
		{33, [3]int{2, 1, 1}},
		{64, [3]int{2, 1, 1}},
		{65, [3]int{1, 1, 1}},
		{70, [3]int{1, 1, 1}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SupercellMultiplier(tc.sites), "sites=%d", tc.sites)
	}
}
