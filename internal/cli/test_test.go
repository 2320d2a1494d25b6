package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pingScenario = `
name: ping
description: ping is answered with pong
epics: [ping]
flow:
  - dispatch: {type: ping}
    await: {type: pong}
assertions:
  - type: trace_count
    action: pong
    count: 1
`

const pingGolden = "# ping\n" +
	"session: test-session-default\n" +
	"001 dispatch ping {}\n" +
	"002 ping pong {}\n"

func TestTest_Pass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ping.yaml", pingScenario)
	writeFile(t, dir, "golden/ping.golden", pingGolden)

	out, err := execute(t, "", "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ping")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ping.yaml", pingScenario)
	writeFile(t, dir, "golden/ping.golden", "# ping\n")

	out, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ ping")
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_UpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ping.yaml", pingScenario)

	out, err := execute(t, "", "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	got, err := os.ReadFile(filepath.Join(dir, "golden", "ping.golden"))
	require.NoError(t, err)
	assert.Equal(t, pingGolden, string(got))
}

func TestTest_FailingAssertionJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ping.yaml", pingScenario+`  - type: trace_contains
    action: endGame
`)

	out, err := execute(t, "", "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTest_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ping.yaml", pingScenario)
	writeFile(t, dir, "other.yaml", "name: [\n")

	out, err := execute(t, "", "test", dir, "--filter", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTest_ScenarioDirs(t *testing.T) {
	_, err := execute(t, "", "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_HarnessScenarios(t *testing.T) {
	out, err := execute(t, "", "test", "../harness/testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, "All scenarios passed")
}

func TestFilterPattern(t *testing.T) {
	assert.Equal(t, "", filterPattern(""))
	assert.Equal(t, "ping.y*ml", filterPattern("ping"))
	assert.Equal(t, "fetch_*", filterPattern("fetch_*"))
	assert.Equal(t, "ping.yaml", filterPattern("ping.yaml"))
}
