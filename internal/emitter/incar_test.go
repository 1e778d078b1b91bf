package emitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressMagmoms(t *testing.T) {
	cases := []struct {
		in   []float64
		want string
	}{
		{[]float64{5, 5, -5, -5, 0, 0, 0}, "2*5 2*-5 3*0"},
		{[]float64{5}, "5"},
		{[]float64{5, -5, 5}, "5 -5 5"},
		{[]float64{0.6, 0.6}, "2*0.6"},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompressMagmoms(tc.in))
	}
}

func TestNewIncarBuilderUnknownSet(t *testing.T) {
	_, err := NewIncarBuilder("MyCustomSet", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MyCustomSet")
}

func TestRenderMagnetic(t *testing.T) {
	b, err := NewIncarBuilder("MPRelaxSet", map[string]interface{}{"ENCUT": 600})
	require.NoError(t, err)

	out := b.Render([]float64{5, 5, -5, 0})
	assert.Contains(t, out, "MAGMOM = 2*5 -5 0\n")
	assert.Contains(t, out, "ISPIN = 2\n")
	assert.Contains(t, out, "ENCUT = 600\n", "user tag must override the preset")
	assert.Contains(t, out, "ALGO = Fast\n")
	assert.Contains(t, out, "LWAVE = .FALSE.\n")
	assert.Contains(t, out, "EDIFF = 1e-05\n")

	// Tags are emitted sorted for stable diffs.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := 1; i < len(lines); i++ {
		assert.Less(t, lines[i-1], lines[i])
	}
}

func TestRenderNonMagnetic(t *testing.T) {
	b, err := NewIncarBuilder("MPStaticSet", nil)
	require.NoError(t, err)

	out := b.Render([]float64{0, 0, 0})
	assert.NotContains(t, out, "MAGMOM")
	assert.Contains(t, out, "ISPIN = 1\n")
	assert.Contains(t, out, "NSW = 0\n")
}

func TestRelaxationSetNames(t *testing.T) {
	names := RelaxationSetNames()
	assert.Contains(t, names, "MPRelaxSet")
	assert.Contains(t, names, "MPStaticSet")
}
