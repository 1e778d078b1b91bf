package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rymo1354/best-practices-materials-workflows/internal/pipeline"
)

// Manifest summarizes one emitted run for downstream consumers: which
// directories exist, which defect sites produced them, and whether the
// submission cap truncated the batch.
type Manifest struct {
	RunID           string          `yaml:"run_id"`
	GeneratedAt     time.Time       `yaml:"generated_at"`
	CalculationType string          `yaml:"calculation_type"`
	Scheme          string          `yaml:"magnetization_scheme"`
	Written         int             `yaml:"written"`
	Skipped         int             `yaml:"skipped"`
	Capped          bool            `yaml:"capped"`
	Structures      []manifestEntry `yaml:"structures"`
}

type manifestEntry struct {
	Label     string             `yaml:"label"`
	Orderings []manifestOrdering `yaml:"orderings"`
}

type manifestOrdering struct {
	Label       string           `yaml:"label"`
	Magmoms     []float64        `yaml:"magmoms,flow,omitempty"`
	Variants    []string         `yaml:"variants,omitempty"`
	DefectSites []manifestDefect `yaml:"defect_sites,omitempty"`
}

type manifestDefect struct {
	Index        int    `yaml:"index"`
	Multiplicity int    `yaml:"multiplicity"`
	Species      string `yaml:"species"`
	RunDirectory string `yaml:"run_directory"`
}

func writeManifest(dir string, run *pipeline.Run, summary *Summary) error {
	m := Manifest{
		RunID:           run.ID,
		GeneratedAt:     time.Now().UTC(),
		CalculationType: run.CalculationType,
		Scheme:          run.Scheme,
		Written:         summary.Written,
		Skipped:         summary.Skipped,
		Capped:          summary.Capped,
	}
	for _, entry := range run.Entries {
		me := manifestEntry{Label: entry.Label}
		for _, ordering := range entry.Orderings {
			mo := manifestOrdering{Label: ordering.Label, Magmoms: ordering.Moments}
			for _, variant := range ordering.Variants {
				mo.Variants = append(mo.Variants, dirName(variant.Label))
			}
			for _, defect := range ordering.DefectSites {
				mo.DefectSites = append(mo.DefectSites, manifestDefect{
					Index:        defect.Index,
					Multiplicity: defect.Multiplicity,
					Species:      defect.Species,
					RunDirectory: defect.RunDirectory,
				})
			}
			me.Orderings = append(me.Orderings, mo)
		}
		m.Structures = append(m.Structures, me)
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "run_manifest.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
