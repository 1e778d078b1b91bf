package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWorkflow = `MPIDs:
  - mp-149
PATHs:
  - POSCAR.test
Calculation_Type:
  Type: defect
  Defect: O
Relaxation_Set: MPRelaxSet
Magnetization_Scheme:
  Scheme: FM+AFM
  Max_antiferro: 5
INCAR_Tags:
  ENCUT: 600
Max_Submissions: 20
API_Key: test-key
`

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeWorkflow(t, validWorkflow))
	require.NoError(t, err)

	assert.Equal(t, []string{"mp-149"}, cfg.MPIDs)
	assert.Equal(t, []string{"POSCAR.test"}, cfg.Paths)
	assert.Equal(t, "defect", cfg.Calculation.Type)
	assert.Equal(t, "O", cfg.Calculation.Defect)
	assert.Equal(t, "MPRelaxSet", cfg.RelaxationSet)
	assert.Equal(t, "FM+AFM", cfg.Magnetization.Scheme)
	assert.Equal(t, 5, cfg.Magnetization.MaxAntiferro)
	assert.Equal(t, 600, cfg.IncarTags["ENCUT"])
	assert.Equal(t, 20, cfg.MaxSubmissions)
	assert.Equal(t, "test-key", cfg.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadInvalidYaml(t *testing.T) {
	_, err := Load(writeWorkflow(t, "MPIDs: [\n"))
	assert.Error(t, err)
}

func TestLoadMissingRequiredKeys(t *testing.T) {
	// Each required key, when removed, must be named in the diagnostic.
	removals := map[string]string{
		"MPIDs":                "MPIDs:\n  - mp-149\n",
		"PATHs":                "PATHs:\n  - POSCAR.test\n",
		"Calculation_Type":     "Calculation_Type:\n  Type: defect\n  Defect: O\n",
		"Relaxation_Set":       "Relaxation_Set: MPRelaxSet\n",
		"Magnetization_Scheme": "Magnetization_Scheme:\n  Scheme: FM+AFM\n  Max_antiferro: 5\n",
		"INCAR_Tags":           "INCAR_Tags:\n  ENCUT: 600\n",
		"Max_Submissions":      "Max_Submissions: 20\n",
	}
	for key, snippet := range removals {
		t.Run(key, func(t *testing.T) {
			content := replaceOnce(t, validWorkflow, snippet, "")
			_, err := Load(writeWorkflow(t, content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
			assert.Contains(t, err.Error(), "invalid input file")
		})
	}
}

func replaceOnce(t *testing.T, content, old, new string) string {
	t.Helper()
	require.Contains(t, content, old)
	return strings.Replace(content, old, new, 1)
}

func TestValidate(t *testing.T) {
	t.Run("unknown calculation type", func(t *testing.T) {
		content := replaceOnce(t, validWorkflow, "Type: defect", "Type: surface")
		_, err := Load(writeWorkflow(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "surface")
	})

	t.Run("defect without element", func(t *testing.T) {
		content := replaceOnce(t, validWorkflow, "  Defect: O\n", "")
		_, err := Load(writeWorkflow(t, content))
		assert.Error(t, err)
	})

	t.Run("unknown magnetization scheme", func(t *testing.T) {
		content := replaceOnce(t, validWorkflow, "Scheme: FM+AFM", "Scheme: spiral")
		_, err := Load(writeWorkflow(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spiral")
	})

	t.Run("negative max antiferro", func(t *testing.T) {
		content := replaceOnce(t, validWorkflow, "Max_antiferro: 5", "Max_antiferro: -1")
		_, err := Load(writeWorkflow(t, content))
		assert.Error(t, err)
	})

	t.Run("non-positive max submissions", func(t *testing.T) {
		content := replaceOnce(t, validWorkflow, "Max_Submissions: 20", "Max_Submissions: 0")
		_, err := Load(writeWorkflow(t, content))
		assert.Error(t, err)
	})

	t.Run("mpids without api key", func(t *testing.T) {
		t.Setenv("MP_API_KEY", "")
		content := replaceOnce(t, validWorkflow, "API_Key: test-key\n", "")
		_, err := Load(writeWorkflow(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("MP_API_KEY", "env-key")
	content := replaceOnce(t, validWorkflow, "API_Key: test-key\n", "")
	cfg, err := Load(writeWorkflow(t, content))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}
