package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenario copies a harness scenario into dir with its relative
// topology path made absolute.
func copyScenario(t *testing.T, src, dir string) string {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	topo, err := filepath.Abs(filepath.Join(scenariosDir, "..", "topologies", "chain.cue"))
	require.NoError(t, err)
	data = []byte(strings.ReplaceAll(string(data), "../topologies/chain.cue", topo))

	dst := filepath.Join(dir, filepath.Base(src))
	require.NoError(t, os.WriteFile(dst, data, 0644))
	return dst
}

func TestTest_GoldenMatch(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ chain_debounce")
	assert.Contains(t, out, "✓ diamond_detach")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTest_GoldenMatchJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", scenariosDir)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	var result TestResult
	decodeData(t, resp, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	for _, s := range result.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTest_Filter(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--filter", "chain*")
	require.NoError(t, err)

	assert.Contains(t, out, "chain_debounce")
	assert.NotContains(t, out, "diamond_detach")
	assert.Contains(t, out, "1 total")
}

func TestTest_UpdateWritesGolden(t *testing.T) {
	work := t.TempDir()
	scenarios := filepath.Join(work, "scenarios")
	require.NoError(t, os.Mkdir(scenarios, 0755))
	copyScenario(t, chainScenario, scenarios)

	out, _, err := execute(t, "test", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ chain_debounce (golden updated)")

	written, err := os.ReadFile(filepath.Join(work, "golden", "chain_debounce.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(harnessGoldenDir, "chain_debounce.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	// A second run compares against what was written.
	_, _, err = execute(t, "test", scenarios)
	require.NoError(t, err)
}

func TestTest_GoldenMismatch(t *testing.T) {
	work := t.TempDir()
	copyScenario(t, chainScenario, work)

	golden := filepath.Join(t.TempDir(), "golden")
	require.NoError(t, os.Mkdir(golden, 0755))
	writeFile(t, golden, "chain_debounce.golden", "{}\n")

	out, _, err := execute(t, "test", work, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ chain_debounce")
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_MissingGoldenUsesExpectations(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "wrong.yaml", failingScenario)

	out, _, err := execute(t, "test", work, "--golden", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_direction")
	assert.Contains(t, out, "1 failed")
}

func TestTest_LoadErrorCountsAsFailure(t *testing.T) {
	work := t.TempDir()
	writeFile(t, work, "broken.yaml", "name: [\n")

	out, _, err := execute(t, "test", work)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_EmptyDirectory(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_EmptyDirectoryJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var result TestResult
	decodeData(t, decodeResponse(t, out), &result)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	writeFile(t, filepath.Join(dir, "nested"), "c.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.yml", filepath.Base(files[0]))
	assert.Equal(t, "b.yaml", filepath.Base(files[1]))
	assert.Equal(t, "c.yaml", filepath.Base(files[2]))

	files, err = findScenarioFiles(dir, "b*")
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestDefaultGoldenDir(t *testing.T) {
	assert.Equal(t, filepath.Join("testdata", "golden"), defaultGoldenDir(filepath.Join("testdata", "scenarios")))
	assert.Equal(t, filepath.Join("testdata", "golden"), defaultGoldenDir(filepath.Join("testdata", "scenarios")+string(filepath.Separator)))
	assert.Equal(t, filepath.Join("g", "x.golden"), goldenFilePath("g", "x"))
}
