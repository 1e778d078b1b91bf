// Package symmetry partitions the sites of a crystal structure into
// symmetry-equivalent classes. The analyzer enumerates the space-group
// operations of the input cell directly: rotation candidates are the integer
// matrices that preserve the lattice metric, and translations are recovered by
// mapping one reference site onto every same-species site. Orbits of the site
// permutations induced by the valid operations are the equivalence classes.
package symmetry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// Operation is one space-group operation in fractional coordinates:
// f' = Rotation * f + Translation (mod 1).
type Operation struct {
	Rotation    [3][3]int
	Translation [3]float64
}

// SiteClass is one symmetry-equivalence class of sites.
type SiteClass struct {
	// Representative is the lowest site index in the class.
	Representative int
	// Species of every member of the class.
	Species string
	// Multiplicity is the class size.
	Multiplicity int
	// Members are the site indices, ascending.
	Members []int
}

// Analyzer finds space-group operations and site equivalence classes.
type Analyzer struct {
	// fracTol is the fractional-coordinate tolerance for site matching.
	fracTol float64
	// metricTol is the absolute tolerance on metric tensor entries when
	// screening rotation candidates.
	metricTol float64
}

// NewAnalyzer returns an analyzer with tolerances suited to cells whose
// coordinates come from file parsing or database retrieval.
func NewAnalyzer() *Analyzer {
	return &Analyzer{fracTol: 1e-3, metricTol: 1e-3}
}

// Operations enumerates the space-group operations of s. At minimum the
// identity is returned. Rotation candidates are restricted to matrix entries
// in {-1, 0, 1}, which covers primitive and supercell settings of the common
// crystal systems.
func (a *Analyzer) Operations(s *structure.Structure) []Operation {
	if s.NumSites() == 0 {
		return []Operation{{Rotation: identity()}}
	}
	g := s.Lattice.Metric()
	rotations := a.metricRotations(g)

	ref, refSpecies := referenceSite(s)
	bySpecies := siteIndexBySpecies(s)

	var ops []Operation
	for _, w := range rotations {
		rotated := rotateFrac(w, s.Sites[ref].Frac)
		for _, j := range bySpecies[refSpecies] {
			var t [3]float64
			for k := 0; k < 3; k++ {
				t[k] = wrapFrac(s.Sites[j].Frac[k] - rotated[k])
			}
			if _, ok := a.permutation(s, bySpecies, w, t); ok {
				ops = append(ops, Operation{Rotation: w, Translation: t})
			}
		}
	}
	if len(ops) == 0 {
		ops = append(ops, Operation{Rotation: identity()})
	}
	return ops
}

// InequivalentSites partitions the sites of s into equivalence classes under
// the structure's space-group operations, ordered by representative index.
func (a *Analyzer) InequivalentSites(s *structure.Structure) []SiteClass {
	n := s.NumSites()
	if n == 0 {
		return nil
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(x, y int) {
		rx, ry := find(x), find(y)
		if rx != ry {
			if ry < rx {
				rx, ry = ry, rx
			}
			parent[ry] = rx
		}
	}

	bySpecies := siteIndexBySpecies(s)
	for _, op := range a.Operations(s) {
		perm, ok := a.permutation(s, bySpecies, op.Rotation, op.Translation)
		if !ok {
			continue
		}
		for i, j := range perm {
			union(i, j)
		}
	}

	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		members[root] = append(members[root], i)
	}
	roots := make([]int, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	classes := make([]SiteClass, 0, len(roots))
	for _, root := range roots {
		idx := members[root]
		sort.Ints(idx)
		classes = append(classes, SiteClass{
			Representative: idx[0],
			Species:        s.Sites[idx[0]].Species,
			Multiplicity:   len(idx),
			Members:        idx,
		})
	}
	return classes
}

// metricRotations returns the integer matrices W with entries in {-1, 0, 1}
// satisfying W^T G W = G within tolerance.
func (a *Analyzer) metricRotations(g *mat.Dense) [][3][3]int {
	var out [][3][3]int
	var w [3][3]int
	var fill func(pos int)
	fill = func(pos int) {
		if pos == 9 {
			if a.preservesMetric(g, w) {
				out = append(out, w)
			}
			return
		}
		for _, v := range [3]int{-1, 0, 1} {
			w[pos/3][pos%3] = v
			fill(pos + 1)
		}
	}
	fill(0)
	return out
}

func (a *Analyzer) preservesMetric(g *mat.Dense, w [3][3]int) bool {
	// det(W) must be +-1 for W to be invertible on the lattice.
	det := w[0][0]*(w[1][1]*w[2][2]-w[1][2]*w[2][1]) -
		w[0][1]*(w[1][0]*w[2][2]-w[1][2]*w[2][0]) +
		w[0][2]*(w[1][0]*w[2][1]-w[1][1]*w[2][0])
	if det != 1 && det != -1 {
		return false
	}
	wf := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			wf.Set(i, j, float64(w[i][j]))
		}
	}
	var tmp, gw mat.Dense
	tmp.Mul(g, wf)
	gw.Mul(wf.T(), &tmp)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(gw.At(i, j)-g.At(i, j)) > a.metricTol {
				return false
			}
		}
	}
	return true
}

// permutation maps each site index through f' = W f + t and returns the site
// permutation, or ok=false when some image has no matching site.
func (a *Analyzer) permutation(s *structure.Structure, bySpecies map[string][]int, w [3][3]int, t [3]float64) ([]int, bool) {
	perm := make([]int, s.NumSites())
	for i, site := range s.Sites {
		image := rotateFrac(w, site.Frac)
		for k := 0; k < 3; k++ {
			image[k] = wrapFrac(image[k] + t[k])
		}
		match := -1
		for _, j := range bySpecies[site.Species] {
			if a.sameFrac(image, s.Sites[j].Frac) {
				match = j
				break
			}
		}
		if match < 0 {
			return nil, false
		}
		perm[i] = match
	}
	return perm, true
}

func (a *Analyzer) sameFrac(p, q [3]float64) bool {
	for k := 0; k < 3; k++ {
		d := math.Abs(wrapFrac(p[k] - q[k]))
		if d > a.fracTol && d < 1-a.fracTol {
			return false
		}
	}
	return true
}

// referenceSite picks a site of the rarest species, which minimizes the
// translation candidates tried per rotation.
func referenceSite(s *structure.Structure) (int, string) {
	counts := make(map[string]int)
	for _, site := range s.Sites {
		counts[site.Species]++
	}
	best, bestCount := 0, math.MaxInt
	for i, site := range s.Sites {
		if counts[site.Species] < bestCount {
			best, bestCount = i, counts[site.Species]
		}
	}
	return best, s.Sites[best].Species
}

func siteIndexBySpecies(s *structure.Structure) map[string][]int {
	out := make(map[string][]int)
	for i, site := range s.Sites {
		out[site.Species] = append(out[site.Species], i)
	}
	return out
}

func identity() [3][3]int {
	return [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func rotateFrac(w [3][3]int, f [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = float64(w[i][0])*f[0] + float64(w[i][1])*f[1] + float64(w[i][2])*f[2]
	}
	return out
}

// wrapFrac maps x into [0, 1).
func wrapFrac(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x++
	}
	if x > 1-1e-9 {
		x = 0
	}
	return x
}

// String renders an operation compactly for logging.
func (o Operation) String() string {
	return fmt.Sprintf("W=%v t=[%.3f %.3f %.3f]", o.Rotation, o.Translation[0], o.Translation[1], o.Translation[2])
}
