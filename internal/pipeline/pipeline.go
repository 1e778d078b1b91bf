// Package pipeline orchestrates one run-file generation batch: structure
// source, magnetic ordering generation and calculation shaping, producing the
// typed run tree the emitter serializes. Each structure's enrichment is
// independent; the batch is sequential and any per-item failure only drops
// that item.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rymo1354/best-practices-materials-workflows/internal/config"
	"github.com/rymo1354/best-practices-materials-workflows/internal/magnetism"
	"github.com/rymo1354/best-practices-materials-workflows/internal/matproj"
	"github.com/rymo1354/best-practices-materials-workflows/internal/shaper"
	"github.com/rymo1354/best-practices-materials-workflows/internal/source"
	"github.com/rymo1354/best-practices-materials-workflows/internal/structure"
)

// Variant is one calculation-ready structure under an ordering.
type Variant struct {
	Label     string
	Structure *structure.Structure
}

// Ordering is one magnetic ordering of a structure with its shaped variants.
type Ordering struct {
	Label string
	// Moments is the accepted per-site moment vector for this ordering,
	// aligned with the pre-shaping structure.
	Moments  []float64
	Variants []Variant
	// DefectSites records the symmetry classes behind each defect variant;
	// empty in bulk mode.
	DefectSites []shaper.DefectSite
}

// Entry is one input structure with all of its orderings.
type Entry struct {
	Label     string
	Orderings []Ordering
}

// Run is the full typed output tree of a batch, mirrored 1:1 onto the emitted
// directory hierarchy.
type Run struct {
	ID              string
	CalculationType string
	Scheme          string
	Entries         []Entry
}

// Builder wires the pipeline stages for one configuration.
type Builder struct {
	cfg    *config.Config
	logger *zap.Logger

	src       *source.Source
	generator *magnetism.Generator
	shp       *shaper.Shaper
	cache     *source.Cache
}

// NewBuilder validates the configured enums and constructs the stages.
func NewBuilder(cfg *config.Config, logger *zap.Logger) (*Builder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scheme, err := magnetism.ParseScheme(cfg.Magnetization.Scheme)
	if err != nil {
		return nil, err
	}
	mode, err := shaper.ParseMode(cfg.Calculation.Type)
	if err != nil {
		return nil, err
	}

	var cache *source.Cache
	if cfg.CachePath != "" {
		cache, err = source.OpenCache(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open structure cache: %w", err)
		}
	}

	var fetcher source.StructureFetcher
	if len(cfg.MPIDs) > 0 {
		fetcher = matproj.NewClient(cfg.APIKey)
	}

	return &Builder{
		cfg:       cfg,
		logger:    logger,
		src:       source.New(fetcher, cache, logger),
		generator: magnetism.NewGenerator(scheme, cfg.Magnetization.MaxAntiferro, logger),
		shp:       shaper.New(mode, cfg.Calculation.Defect, logger),
		cache:     cache,
	}, nil
}

// Close releases the builder's resources.
func (b *Builder) Close() error {
	if b.cache != nil {
		return b.cache.Close()
	}
	return nil
}

// Build runs source, ordering and shaping for the whole batch and returns the
// run tree.
func (b *Builder) Build(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:              uuid.NewString(),
		CalculationType: b.cfg.Calculation.Type,
		Scheme:          b.cfg.Magnetization.Scheme,
	}

	entries := b.src.Load(ctx, b.cfg.MPIDs, b.cfg.Paths)
	b.logger.Info("structures loaded",
		zap.Int("requested", len(b.cfg.MPIDs)+len(b.cfg.Paths)),
		zap.Int("loaded", len(entries)))

	for _, entry := range entries {
		orderings, err := b.generator.Orderings(entry.Structure)
		if err != nil {
			return nil, err
		}

		runEntry := Entry{Label: entry.Label}
		for _, ordering := range orderings {
			variants, defects, err := b.shp.Shape(ordering.Structure)
			if err != nil {
				return nil, err
			}
			runOrdering := Ordering{
				Label:       ordering.Label,
				Moments:     ordering.Moments,
				DefectSites: defects,
			}
			for _, v := range variants {
				runOrdering.Variants = append(runOrdering.Variants, Variant{
					Label:     v.Label,
					Structure: v.Structure,
				})
			}
			runEntry.Orderings = append(runEntry.Orderings, runOrdering)
		}
		run.Entries = append(run.Entries, runEntry)
	}
	return run, nil
}
