package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateText(t *testing.T) {
	stdout, _, err := execute(t, "generate", "testdata/scenarios.yaml")
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ enact-header: 1 path(s)")
	assert.Contains(t, stdout, "resolveAndEnact")
	assert.Contains(t, stdout, "✓ funded: 2 path(s)")
	assert.Contains(t, stdout, "✓ 2 scenario(s) generated")
}

func TestGenerateJSON(t *testing.T) {
	stdout, _, err := execute(t, "generate", "--format", "json", "--scenario", "enact-header", "testdata/scenarios.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)

	sp := resp.Data.Scenarios[0]
	assert.Equal(t, "enact-header", sp.Name)
	require.Len(t, sp.Paths, 1)
	assert.Equal(t, []string{"QA_RESOLVE", "TICK_TIME", "ENACT"}, sp.Paths[0].Events)
	assert.Equal(t, "proposer", sp.Paths[0].Actor)
	assert.Len(t, sp.Paths[0].ID, 64)
}

func TestGenerateCoverageFailure(t *testing.T) {
	stdout, _, err := execute(t, "generate", "testdata/unreachable.yaml")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ never-enacted: 0 path(s)")
	assert.Contains(t, stdout, ErrCodeGeneration)
}

func TestGenerateCompileFailure(t *testing.T) {
	stdout, _, err := execute(t, "generate", "--format", "json", "testdata/typo.yaml")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "fundd")
}

func TestGenerateMissingFile(t *testing.T) {
	_, _, err := execute(t, "generate", "testdata/nope.yaml")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerateUnknownScenario(t *testing.T) {
	_, _, err := execute(t, "generate", "--scenario", "nope", "testdata/scenarios.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `no scenario named "nope"`)
}

func TestGenerateMetricsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "metrics.prom")

	_, _, err := execute(t, "generate", "--metrics-file", file, "testdata/scenarios.yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `changeoracle_pathgen_paths_total{scenario="enact-header"} 1`)
}
