package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

func rocksalt() *structure.Structure {
	return structure.New(structure.CubicLattice(5.64), []structure.Site{
		{Species: "Na", Frac: [3]float64{0, 0, 0}},
		{Species: "Na", Frac: [3]float64{0.5, 0.5, 0}},
		{Species: "Na", Frac: [3]float64{0.5, 0, 0.5}},
		{Species: "Na", Frac: [3]float64{0, 0.5, 0.5}},
		{Species: "Cl", Frac: [3]float64{0.5, 0, 0}},
		{Species: "Cl", Frac: [3]float64{0, 0.5, 0}},
		{Species: "Cl", Frac: [3]float64{0, 0, 0.5}},
		{Species: "Cl", Frac: [3]float64{0.5, 0.5, 0.5}},
	})
}

func TestParseMode(t *testing.T) {
	_, err := ParseMode("bulk")
	assert.NoError(t, err)
	_, err = ParseMode("defect")
	assert.NoError(t, err)

	_, err = ParseMode("surface")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface")
}

func TestBulkPassthrough(t *testing.T) {
	sh := New(ModeBulk, "", nil)
	s := rocksalt()
	variants, defects, err := sh.Shape(s)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Empty(t, defects)

	assert.Equal(t, "Cl4 Na4", variants[0].Label)
	assert.Equal(t, s.NumSites(), variants[0].Structure.NumSites())

	variants[0].Structure.Sites[0].Magmom = 9
	assert.Zero(t, s.Sites[0].Magmom, "bulk variant must be a copy")
}

func TestDefectShaping(t *testing.T) {
	sh := New(ModeDefect, "Na", nil)
	s := rocksalt()
	variants, defects, err := sh.Shape(s)
	require.NoError(t, err)

	// All Na sites in rocksalt are symmetry equivalent: one defect variant.
	require.Len(t, variants, 1)
	require.Len(t, defects, 1)

	// 8 sites rescale by [3 2 2]: 96 sites, minus the removed one.
	assert.Equal(t, 95, variants[0].Structure.NumSites())
	assert.Equal(t, "Cl48 Na47 1", variants[0].Label)

	assert.Equal(t, "Na", defects[0].Species)
	assert.Equal(t, 48, defects[0].Multiplicity)
	assert.Equal(t, "Cl48_Na47_1", defects[0].RunDirectory)
}

func TestDefectNoMatchingSpecies(t *testing.T) {
	sh := New(ModeDefect, "Mg", nil)
	variants, defects, err := sh.Shape(rocksalt())
	require.NoError(t, err)
	assert.Empty(t, variants, "no Mg site, no defect variants")
	assert.Empty(t, defects)
}

func TestUnknownMode(t *testing.T) {
	sh := New(Mode("surface"), "", nil)
	_, _, err := sh.Shape(rocksalt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface")
}

func TestDefectPreservesInput(t *testing.T) {
	sh := New(ModeDefect, "Cl", nil)
	s := rocksalt()
	_, _, err := sh.Shape(s)
	require.NoError(t, err)
	assert.Equal(t, 8, s.NumSites(), "shaping must not mutate the input")
}
