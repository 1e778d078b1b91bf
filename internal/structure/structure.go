// Package structure provides the crystal structure model shared by the whole
// workflow: a lattice, a list of periodic sites with collinear magnetic
// moments, and the geometric operations (supercells, site removal) the
// calculation shaper needs.
package structure

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Lattice holds the three lattice vectors in Angstrom, one per row.
type Lattice struct {
	Rows [3][3]float64
}

// NewLattice builds a lattice from three row vectors.
func NewLattice(rows [3][3]float64) Lattice {
	return Lattice{Rows: rows}
}

// CubicLattice returns a cubic lattice with edge length a.
func CubicLattice(a float64) Lattice {
	return Lattice{Rows: [3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}}}
}

// Matrix returns the lattice as a 3x3 dense matrix (rows are lattice vectors).
func (l Lattice) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, l.Rows[i][j])
		}
	}
	return m
}

// Volume returns the cell volume in cubic Angstrom.
func (l Lattice) Volume() float64 {
	return math.Abs(mat.Det(l.Matrix()))
}

// Metric returns the metric tensor G with G[i][j] = a_i . a_j. Two fractional
// coordinates are related by a symmetry rotation W exactly when W^T G W = G,
// which is how the symmetry analyzer screens rotation candidates.
func (l Lattice) Metric() *mat.Dense {
	a := l.Matrix()
	g := mat.NewDense(3, 3, nil)
	g.Mul(a, a.T())
	return g
}

// Cartesian converts a fractional coordinate to Cartesian.
func (l Lattice) Cartesian(frac [3]float64) [3]float64 {
	var cart [3]float64
	for j := 0; j < 3; j++ {
		cart[j] = frac[0]*l.Rows[0][j] + frac[1]*l.Rows[1][j] + frac[2]*l.Rows[2][j]
	}
	return cart
}

// Scale multiplies each lattice vector by the matching integer factor.
func (l Lattice) Scale(mult [3]int) Lattice {
	var rows [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rows[i][j] = l.Rows[i][j] * float64(mult[i])
		}
	}
	return Lattice{Rows: rows}
}

// Site is one periodic site: a chemical species, a fractional coordinate and
// a collinear magnetic moment in Bohr magnetons.
type Site struct {
	Species string
	Frac    [3]float64
	Magmom  float64
}

// Structure is an ordered list of sites in a lattice. Site order is
// significant: moment vectors and emitted VASP files are aligned by index.
// Stages of the workflow never mutate a structure they received; they work on
// copies.
type Structure struct {
	Lattice Lattice
	Sites   []Site

	// HasMagmoms records whether the moments were assigned explicitly
	// (by the source data or a magnetization scheme) rather than being
	// zero-valued defaults.
	HasMagmoms bool
}

// New builds a structure from a lattice and sites.
func New(lattice Lattice, sites []Site) *Structure {
	return &Structure{Lattice: lattice, Sites: sites}
}

// Copy returns a deep copy with independent site storage.
func (s *Structure) Copy() *Structure {
	sites := make([]Site, len(s.Sites))
	copy(sites, s.Sites)
	return &Structure{Lattice: s.Lattice, Sites: sites, HasMagmoms: s.HasMagmoms}
}

// NumSites returns the number of sites.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// Magmoms returns the per-site moment vector, aligned by site index.
func (s *Structure) Magmoms() []float64 {
	moments := make([]float64, len(s.Sites))
	for i, site := range s.Sites {
		moments[i] = site.Magmom
	}
	return moments
}

// SetMagmoms overwrites every site moment from a vector aligned by site index.
func (s *Structure) SetMagmoms(moments []float64) error {
	if len(moments) != len(s.Sites) {
		return fmt.Errorf("moment vector has %d entries for %d sites", len(moments), len(s.Sites))
	}
	for i := range s.Sites {
		s.Sites[i].Magmom = moments[i]
	}
	s.HasMagmoms = true
	return nil
}

// Formula returns a human-readable formula like "Fe2 O3", species in
// alphabetical order with explicit counts. Used as the structure label and,
// after defect removal, as the variant label.
func (s *Structure) Formula() string {
	counts := make(map[string]int)
	for _, site := range s.Sites {
		counts[site.Species]++
	}
	species := make([]string, 0, len(counts))
	for sp := range counts {
		species = append(species, sp)
	}
	sort.Strings(species)
	parts := make([]string, len(species))
	for i, sp := range species {
		parts[i] = fmt.Sprintf("%s%d", sp, counts[sp])
	}
	return strings.Join(parts, " ")
}

// Supercell replicates the cell by integer multipliers along each lattice
// vector. Site order is preserved: all images of site i precede all images of
// site i+1, so species grouping and moment alignment survive the expansion.
func (s *Structure) Supercell(mult [3]int) *Structure {
	m := mult
	for i := range m {
		if m[i] < 1 {
			m[i] = 1
		}
	}
	total := m[0] * m[1] * m[2]
	if total <= 1 {
		return s.Copy()
	}
	sites := make([]Site, 0, len(s.Sites)*total)
	for _, site := range s.Sites {
		for i := 0; i < m[0]; i++ {
			for j := 0; j < m[1]; j++ {
				for k := 0; k < m[2]; k++ {
					image := site
					image.Frac = [3]float64{
						(site.Frac[0] + float64(i)) / float64(m[0]),
						(site.Frac[1] + float64(j)) / float64(m[1]),
						(site.Frac[2] + float64(k)) / float64(m[2]),
					}
					sites = append(sites, image)
				}
			}
		}
	}
	return &Structure{Lattice: s.Lattice.Scale(m), Sites: sites, HasMagmoms: s.HasMagmoms}
}

// RemoveSite returns a copy with site i deleted. The receiver is untouched.
func (s *Structure) RemoveSite(i int) (*Structure, error) {
	if i < 0 || i >= len(s.Sites) {
		return nil, fmt.Errorf("site index %d out of range for %d sites", i, len(s.Sites))
	}
	out := s.Copy()
	out.Sites = append(out.Sites[:i], out.Sites[i+1:]...)
	return out, nil
}
