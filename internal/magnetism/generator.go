package magnetism

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// Scheme selects which magnetic orderings the generator emits.
type Scheme string

const (
	SchemePreserve Scheme = "preserve"
	SchemeFM       Scheme = "FM"
	SchemeAFM      Scheme = "AFM"
	SchemeFMAFM    Scheme = "FM+AFM"
)

// ParseScheme validates a configured scheme value.
func ParseScheme(value string) (Scheme, error) {
	switch Scheme(value) {
	case SchemePreserve, SchemeFM, SchemeAFM, SchemeFMAFM:
		return Scheme(value), nil
	}
	return "", fmt.Errorf("magnetization scheme %q not recognized", value)
}

// Ordering is one magnetic variant of a structure: the labeled structure copy
// and its per-site moment vector.
type Ordering struct {
	Label     string
	Structure *structure.Structure
	Moments   []float64
}

// Generator applies a magnetization scheme to structures.
type Generator struct {
	scheme      Scheme
	maxAFM      int
	maxAttempts int
	enum        *Enumerator
	logger      *zap.Logger
}

// NewGenerator builds a generator. maxAFM caps the antiferromagnetic
// enumerations per structure; it is only consulted by the AFM schemes.
func NewGenerator(scheme Scheme, maxAFM int, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		scheme:      scheme,
		maxAFM:      maxAFM,
		maxAttempts: DefaultMaxAttempts,
		enum:        NewEnumerator(),
		logger:      logger,
	}
}

// WithEnumerator swaps the random source, for deterministic tests.
func (g *Generator) WithEnumerator(e *Enumerator) *Generator {
	g.enum = e
	return g
}

// Orderings emits the magnetic variants of s according to the configured
// scheme. The input structure is never mutated; each ordering owns a copy.
func (g *Generator) Orderings(s *structure.Structure) ([]Ordering, error) {
	ferro := g.ferromagnetic(s)

	switch g.scheme {
	case SchemePreserve:
		// The original structure passes through untouched; when it
		// carried no explicit moments, the ferromagnetic assignment is
		// recorded in its place.
		moments := s.Magmoms()
		if !s.HasMagmoms {
			moments = ferro.Magmoms()
		}
		return []Ordering{{Label: "preserve", Structure: s.Copy(), Moments: moments}}, nil

	case SchemeFM:
		return []Ordering{{Label: "FM", Structure: ferro, Moments: ferro.Magmoms()}}, nil

	case SchemeAFM:
		return g.antiferromagnetic(ferro, nil), nil

	case SchemeFMAFM:
		orderings := []Ordering{{Label: "FM", Structure: ferro, Moments: ferro.Magmoms()}}
		return g.antiferromagnetic(ferro, orderings), nil
	}
	return nil, fmt.Errorf("magnetization scheme %q not recognized", string(g.scheme))
}

// ferromagnetic returns a copy of s with every moment replaced by the
// per-species default.
func (g *Generator) ferromagnetic(s *structure.Structure) *structure.Structure {
	ferro := s.Copy()
	species := make([]string, len(ferro.Sites))
	for i, site := range ferro.Sites {
		species[i] = site.Species
	}
	// Length always matches; SetMagmoms only rejects misaligned vectors.
	_ = ferro.SetMagmoms(FerromagneticMoments(species))
	return ferro
}

// antiferromagnetic appends the enumerated AFM orderings of ferro to out. A
// non-magnetic structure short-circuits to a single ferromagnetic ordering:
// every sign flip of an all-zero vector reproduces the reference, so the
// enumerator would reject candidates until its attempts ran out.
func (g *Generator) antiferromagnetic(ferro *structure.Structure, out []Ordering) []Ordering {
	reference := ferro.Magmoms()
	if AllZero(reference) {
		g.logger.Info("structure is not magnetic; ferromagnetic structure to be run",
			zap.String("formula", ferro.Formula()))
		if !containsLabel(out, "FM") {
			out = append(out, Ordering{Label: "FM", Structure: ferro, Moments: reference})
		}
		return out
	}

	enumerations := g.enum.Enumerate(reference, g.maxAFM, g.maxAttempts)
	if len(enumerations) < g.maxAFM {
		g.logger.Warn("antiferromagnetic enumeration exhausted attempts",
			zap.String("formula", ferro.Formula()),
			zap.Int("requested", g.maxAFM),
			zap.Int("accepted", len(enumerations)))
	}
	for i, enumeration := range enumerations {
		afm := ferro.Copy()
		_ = afm.SetMagmoms(enumeration)
		out = append(out, Ordering{
			Label:     fmt.Sprintf("AFM%d", i+1),
			Structure: afm,
			Moments:   enumeration,
		})
	}
	return out
}

func containsLabel(orderings []Ordering, label string) bool {
	for _, o := range orderings {
		if o.Label == label {
			return true
		}
	}
	return false
}
