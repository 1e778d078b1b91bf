// Package emitter serializes a run tree into the on-disk directory hierarchy
// a simulation engine consumes: one POSCAR and INCAR per
// <type>/<structure>/<ordering>/<variant> leaf, plus a run manifest at the
// root.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rymo1354/best-practices-materials-workflows/internal/pipeline"
	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// Writer emits run trees under a root directory.
type Writer struct {
	root           string
	incar          *IncarBuilder
	maxSubmissions int
	logger         *zap.Logger
}

// NewWriter builds a writer. root is the parent of the calculation-type
// directory; maxSubmissions caps the variant directories written per run.
func NewWriter(root string, incar *IncarBuilder, maxSubmissions int, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, incar: incar, maxSubmissions: maxSubmissions, logger: logger}
}

// Summary reports what one WriteRun emitted.
type Summary struct {
	Written int
	// Skipped counts orderings with no variants (e.g. defect calculations
	// on structures without the defect element).
	Skipped int
	// Capped is set when MaxSubmissions stopped the batch early.
	Capped bool
}

// WriteRun walks the run tree depth-first and writes one directory per
// variant. Orderings with an empty variant set are logged and skipped;
// partial output is expected, never an error. Directory creation is
// idempotent.
func (w *Writer) WriteRun(run *pipeline.Run) (*Summary, error) {
	summary := &Summary{}
	typeDir := filepath.Join(w.root, dirName(run.CalculationType))
	if err := os.MkdirAll(typeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	for _, entry := range run.Entries {
		entryDir := filepath.Join(typeDir, dirName(entry.Label))
		for _, ordering := range entry.Orderings {
			if len(ordering.Variants) == 0 {
				w.logger.Warn("structure not compatible with calculation",
					zap.String("structure", entry.Label),
					zap.String("ordering", ordering.Label),
					zap.String("calculation", run.CalculationType))
				summary.Skipped++
				continue
			}
			orderingDir := filepath.Join(entryDir, dirName(ordering.Label))
			for _, variant := range ordering.Variants {
				if summary.Written >= w.maxSubmissions {
					if !summary.Capped {
						w.logger.Warn("submission cap reached; remaining variants skipped",
							zap.Int("max_submissions", w.maxSubmissions))
					}
					summary.Capped = true
					summary.Skipped++
					continue
				}
				variantDir := filepath.Join(orderingDir, dirName(variant.Label))
				if err := w.writeVariant(variantDir, variant.Structure); err != nil {
					return summary, err
				}
				summary.Written++
			}
		}
	}

	if err := writeManifest(typeDir, run, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (w *Writer) writeVariant(dir string, s *structure.Structure) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := structure.WritePoscarFile(filepath.Join(dir, "POSCAR"), s); err != nil {
		return fmt.Errorf("write POSCAR in %s: %w", dir, err)
	}
	if w.incar != nil {
		incar := w.incar.Render(s.Magmoms())
		if err := os.WriteFile(filepath.Join(dir, "INCAR"), []byte(incar), 0o644); err != nil {
			return fmt.Errorf("write INCAR in %s: %w", dir, err)
		}
	}
	w.logger.Debug("variant written", zap.String("dir", dir))
	return nil
}

// dirName makes a label filesystem-friendly, spaces become underscores.
func dirName(label string) string {
	return strings.ReplaceAll(label, " ", "_")
}
