package magnetism

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

func ironOxide() *structure.Structure {
	return structure.New(structure.CubicLattice(4.3), []structure.Site{
		{Species: "Fe", Frac: [3]float64{0, 0, 0}},
		{Species: "Fe", Frac: [3]float64{0.5, 0.5, 0.5}},
		{Species: "O", Frac: [3]float64{0.5, 0, 0}},
		{Species: "O", Frac: [3]float64{0, 0.5, 0}},
	})
}

func quartzLike() *structure.Structure {
	// No magnetic species at all.
	return structure.New(structure.CubicLattice(5.0), []structure.Site{
		{Species: "Si", Frac: [3]float64{0, 0, 0}},
		{Species: "O", Frac: [3]float64{0.5, 0.5, 0.5}},
	})
}

func TestParseScheme(t *testing.T) {
	for _, valid := range []string{"preserve", "FM", "AFM", "FM+AFM"} {
		_, err := ParseScheme(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseScheme("ferrimagnetic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ferrimagnetic")
}

func TestSchemeFM(t *testing.T) {
	g := NewGenerator(SchemeFM, 0, nil)
	orderings, err := g.Orderings(ironOxide())
	require.NoError(t, err)
	require.Len(t, orderings, 1)

	assert.Equal(t, "FM", orderings[0].Label)
	assert.Equal(t, []float64{5, 5, 0, 0}, orderings[0].Moments)
	assert.True(t, orderings[0].Structure.HasMagmoms)
}

func TestSchemePreserve(t *testing.T) {
	t.Run("keeps explicit moments", func(t *testing.T) {
		s := ironOxide()
		require.NoError(t, s.SetMagmoms([]float64{1, -1, 0, 0}))

		g := NewGenerator(SchemePreserve, 0, nil)
		orderings, err := g.Orderings(s)
		require.NoError(t, err)
		require.Len(t, orderings, 1)
		assert.Equal(t, "preserve", orderings[0].Label)
		assert.Equal(t, []float64{1, -1, 0, 0}, orderings[0].Moments)
	})

	t.Run("falls back to ferromagnetic assignment", func(t *testing.T) {
		g := NewGenerator(SchemePreserve, 0, nil)
		orderings, err := g.Orderings(ironOxide())
		require.NoError(t, err)
		require.Len(t, orderings, 1)
		assert.Equal(t, []float64{5, 5, 0, 0}, orderings[0].Moments)
		// The structure itself passes through without moment overwrite.
		assert.False(t, orderings[0].Structure.HasMagmoms)
	})
}

func TestSchemeAFM(t *testing.T) {
	t.Run("magnetic structure", func(t *testing.T) {
		g := NewGenerator(SchemeAFM, 2, nil).WithEnumerator(NewSeededEnumerator(17))
		orderings, err := g.Orderings(ironOxide())
		require.NoError(t, err)
		require.NotEmpty(t, orderings)
		assert.LessOrEqual(t, len(orderings), 2)

		reference := []float64{5, 5, 0, 0}
		for i, o := range orderings {
			assert.Equal(t, "AFM", o.Label[:3])
			assert.NotEqual(t, reference, o.Moments, "ordering %d is ferromagnetic", i)
			assert.Equal(t, o.Moments, o.Structure.Magmoms())
		}
	})

	t.Run("non-magnetic structure emits ferromagnetic only", func(t *testing.T) {
		g := NewGenerator(SchemeAFM, 5, nil).WithEnumerator(NewSeededEnumerator(17))
		orderings, err := g.Orderings(quartzLike())
		require.NoError(t, err)
		require.Len(t, orderings, 1)
		assert.Equal(t, "FM", orderings[0].Label)
		assert.Equal(t, []float64{0, 0}, orderings[0].Moments)
	})
}

func TestSchemeFMAFM(t *testing.T) {
	t.Run("one FM plus up to max distinct AFM", func(t *testing.T) {
		g := NewGenerator(SchemeFMAFM, 3, nil).WithEnumerator(NewSeededEnumerator(23))
		orderings, err := g.Orderings(ironOxide())
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(orderings), 2)
		assert.LessOrEqual(t, len(orderings), 4)
		assert.Equal(t, "FM", orderings[0].Label)

		// Two magnetic sites admit at most three non-FM sign patterns.
		afm := orderings[1:]
		assert.LessOrEqual(t, len(afm), 3)
		for i := range afm {
			for j := i + 1; j < len(afm); j++ {
				assert.NotEqual(t, afm[i].Moments, afm[j].Moments)
			}
		}
	})

	t.Run("non-magnetic structure does not duplicate FM", func(t *testing.T) {
		g := NewGenerator(SchemeFMAFM, 3, nil).WithEnumerator(NewSeededEnumerator(23))
		orderings, err := g.Orderings(quartzLike())
		require.NoError(t, err)
		require.Len(t, orderings, 1)
		assert.Equal(t, "FM", orderings[0].Label)
	})
}

func TestUnknownScheme(t *testing.T) {
	g := NewGenerator(Scheme("sideways"), 0, nil)
	_, err := g.Orderings(ironOxide())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestOrderingsDoNotShareStorage(t *testing.T) {
	g := NewGenerator(SchemeFMAFM, 2, nil).WithEnumerator(NewSeededEnumerator(5))
	s := ironOxide()
	orderings, err := g.Orderings(s)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(orderings), 2)

	orderings[1].Structure.Sites[0].Magmom = 99
	assert.Equal(t, 5.0, orderings[0].Structure.Sites[0].Magmom)
	assert.Zero(t, s.Sites[0].Magmom)
}
