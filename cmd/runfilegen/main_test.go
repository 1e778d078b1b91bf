package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMissingWorkflow(t *testing.T) {
	rootCmd.SetArgs([]string{"generate", filepath.Join(t.TempDir(), "missing.yaml")})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestGenerateUnknownCalculationType(t *testing.T) {
	workflow := filepath.Join(t.TempDir(), "workflow.yaml")
	content := `MPIDs: []
PATHs: []
Calculation_Type:
  Type: surface
Relaxation_Set: MPRelaxSet
Magnetization_Scheme:
  Scheme: FM
  Max_antiferro: 0
INCAR_Tags: {}
Max_Submissions: 10
`
	require.NoError(t, os.WriteFile(workflow, []byte(content), 0o644))

	rootCmd.SetArgs([]string{"generate", workflow})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface")
}

func TestSetsCommand(t *testing.T) {
	rootCmd.SetArgs([]string{"sets"})
	assert.NoError(t, rootCmd.Execute())
}
