// Package config loads and validates the YAML workflow document that drives a
// run-file generation batch. Missing required keys and unrecognized enum
// values are fatal: the caller reports the diagnostic and exits.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// requiredKeys are the top-level keys a workflow document must carry, checked
// by name so the diagnostic can name the missing one.
var requiredKeys = []string{
	"MPIDs",
	"PATHs",
	"Calculation_Type",
	"Relaxation_Set",
	"Magnetization_Scheme",
	"INCAR_Tags",
	"Max_Submissions",
}

// Config is the parsed workflow document.
type Config struct {
	// MPIDs are Materials Project identifiers to fetch remotely.
	MPIDs []string `yaml:"MPIDs"`
	// Paths are local POSCAR/CONTCAR files to load.
	Paths []string `yaml:"PATHs"`

	Calculation   CalculationConfig   `yaml:"Calculation_Type"`
	RelaxationSet string              `yaml:"Relaxation_Set"`
	Magnetization MagnetizationConfig `yaml:"Magnetization_Scheme"`

	// IncarTags override the relaxation set's base INCAR tags.
	IncarTags map[string]interface{} `yaml:"INCAR_Tags"`

	// MaxSubmissions caps how many run directories one batch writes.
	MaxSubmissions int `yaml:"Max_Submissions"`

	// CachePath enables the on-disk MPID fetch cache when set.
	CachePath string `yaml:"Cache_Path"`

	// APIKey authenticates Materials Project lookups. Falls back to the
	// MP_API_KEY environment variable when empty.
	APIKey string `yaml:"API_Key"`
}

// CalculationConfig selects bulk or defect shaping.
type CalculationConfig struct {
	Type string `yaml:"Type"`
	// Defect is the element whose symmetry-inequivalent sites are removed;
	// required when Type is "defect".
	Defect string `yaml:"Defect"`
}

// MagnetizationConfig selects the magnetic ordering scheme.
type MagnetizationConfig struct {
	Scheme string `yaml:"Scheme"`
	// MaxAntiferro caps the random antiferromagnetic enumerations per
	// structure.
	MaxAntiferro int `yaml:"Max_antiferro"`
}

// Load reads and validates a workflow document.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path to %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Presence check first, so a missing key is reported by name rather
	// than surfacing as a zero value later.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml in %s: %w", path, err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%s not in %s; invalid input file", key, path)
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("MP_API_KEY")
	}
}

// Validate rejects unrecognized enum values and inconsistent settings. The
// shaping and magnetization packages re-validate defensively, but bad
// configuration must die here, before any remote retrieval happens.
func (c *Config) Validate() error {
	switch c.Calculation.Type {
	case "bulk":
	case "defect":
		if c.Calculation.Defect == "" {
			return fmt.Errorf("Calculation_Type defect requires a Defect element")
		}
	default:
		return fmt.Errorf("calculation type %q not recognized; fatal error", c.Calculation.Type)
	}

	switch c.Magnetization.Scheme {
	case "preserve", "FM", "AFM", "FM+AFM":
	default:
		return fmt.Errorf("magnetization scheme %q not recognized; fatal error", c.Magnetization.Scheme)
	}
	if c.Magnetization.MaxAntiferro < 0 {
		return fmt.Errorf("Max_antiferro must not be negative, got %d", c.Magnetization.MaxAntiferro)
	}

	if c.RelaxationSet == "" {
		return fmt.Errorf("Relaxation_Set must not be empty")
	}
	if c.MaxSubmissions < 1 {
		return fmt.Errorf("Max_Submissions must be positive, got %d", c.MaxSubmissions)
	}

	if len(c.MPIDs) > 0 && c.APIKey == "" {
		return fmt.Errorf("MPIDs listed but no API key configured (set API_Key or MP_API_KEY)")
	}
	return nil
}
