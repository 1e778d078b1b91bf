// Package shaper turns each magnetic ordering into the structures a
// calculation actually runs on: an unchanged bulk cell, or a rescaled
// supercell with one symmetry-inequivalent site of the defect element removed
// per variant.
package shaper

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
	"github.com/rymo1354/best-practices-materials-workflows/internal/symmetry"
)

// Mode selects the calculation shaping.
type Mode string

const (
	ModeBulk   Mode = "bulk"
	ModeDefect Mode = "defect"
)

// ParseMode validates a configured calculation type.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeBulk, ModeDefect:
		return Mode(value), nil
	}
	return "", fmt.Errorf("calculation type %q not recognized", value)
}

// Variant is one calculation-ready structure derived from an ordering.
type Variant struct {
	Label     string
	Structure *structure.Structure
}

// DefectSite records which symmetry class produced a defect variant.
type DefectSite struct {
	// Index of the removed representative site in the rescaled cell.
	Index int
	// Multiplicity is the number of sites equivalent to it.
	Multiplicity int
	Species      string
	// RunDirectory is the variant label with spaces replaced by
	// underscores, matching the emitted directory name.
	RunDirectory string
}

// Shaper applies the configured calculation mode.
type Shaper struct {
	mode     Mode
	defect   string
	analyzer *symmetry.Analyzer
	logger   *zap.Logger
}

// New builds a shaper. defectElement is only consulted in defect mode.
func New(mode Mode, defectElement string, logger *zap.Logger) *Shaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shaper{
		mode:     mode,
		defect:   defectElement,
		analyzer: symmetry.NewAnalyzer(),
		logger:   logger,
	}
}

// Shape derives the calculation variants of one ordering's structure. An
// empty variant list is a legitimate outcome (defect mode with no site of the
// defect element); the emitter skips it downstream.
func (sh *Shaper) Shape(s *structure.Structure) ([]Variant, []DefectSite, error) {
	switch sh.mode {
	case ModeBulk:
		return []Variant{{Label: s.Formula(), Structure: s.Copy()}}, nil, nil
	case ModeDefect:
		variants, sites := sh.defectVariants(s)
		return variants, sites, nil
	}
	return nil, nil, fmt.Errorf("calculation type %q not recognized", string(sh.mode))
}

func (sh *Shaper) defectVariants(s *structure.Structure) ([]Variant, []DefectSite) {
	rescaled := s.Supercell(SupercellMultiplier(s.NumSites()))
	classes := sh.analyzer.InequivalentSites(rescaled)

	var variants []Variant
	var defects []DefectSite
	number := 1
	for _, class := range classes {
		if class.Species != sh.defect {
			continue
		}
		removed, err := rescaled.RemoveSite(class.Representative)
		if err != nil {
			// Class indices come from the analyzer over the same
			// cell, so this indicates a programming error.
			sh.logger.Error("defect site removal failed",
				zap.Int("site", class.Representative), zap.Error(err))
			continue
		}
		label := fmt.Sprintf("%s %d", removed.Formula(), number)
		variants = append(variants, Variant{Label: label, Structure: removed})
		defects = append(defects, DefectSite{
			Index:        class.Representative,
			Multiplicity: class.Multiplicity,
			Species:      class.Species,
			RunDirectory: strings.ReplaceAll(label, " ", "_"),
		})
		number++
	}
	return variants, defects
}
