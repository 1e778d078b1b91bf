// Package magnetism assigns collinear magnetic orderings to crystal
// structures: a canonical ferromagnetic assignment from per-species default
// moments, and randomized antiferromagnetic enumerations derived from it by
// rejection sampling over sign flips.
package magnetism

// defaultMagmoms holds the initial collinear moment (Bohr magnetons) assigned
// to each magnetic species in the ferromagnetic reference. Species absent from
// the table get zero. Values follow the common relaxation-set initialization
// for 3d transition metals and lanthanides.
var defaultMagmoms = map[string]float64{
	"Ce": 5, "Co": 0.6, "Cr": 5, "Dy": 5, "Er": 3, "Eu": 10,
	"Fe": 5, "Gd": 7, "Ho": 4, "La": 0.6, "Lu": 0.6, "Mn": 5,
	"Mo": 5, "Nd": 3, "Ni": 5, "Pm": 3, "Pr": 2, "Sm": 3,
	"Tb": 6, "Tm": 2, "V": 5, "W": 5, "Yb": 2,
}

// DefaultMagmom returns the ferromagnetic reference moment for a species,
// zero when the species is non-magnetic.
func DefaultMagmom(species string) float64 {
	return defaultMagmoms[species]
}

// FerromagneticMoments builds the ferromagnetic reference vector for a list
// of species, aligned by index.
func FerromagneticMoments(species []string) []float64 {
	moments := make([]float64, len(species))
	for i, sp := range species {
		moments[i] = DefaultMagmom(sp)
	}
	return moments
}

// AllZero reports whether every entry of a moment vector is zero. An all-zero
// ferromagnetic reference means the structure is non-magnetic and the
// antiferromagnetic enumerator must not be invoked for it: every sign-flip
// candidate equals the reference and would be rejected until attempts run out.
func AllZero(moments []float64) bool {
	for _, m := range moments {
		if m != 0 {
			return false
		}
	}
	return true
}
