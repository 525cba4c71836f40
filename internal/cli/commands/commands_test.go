package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refwire/refwire/internal/catalog"
	"github.com/refwire/refwire/internal/scenefile"
)

const keep = `
name: keep
nodes:
  - name: fort
    facets:
      - kind: Team
        props: {name: blue}
    children:
      - name: tower
        facets:
          - kind: Body
          - kind: Turret
            props: {range: 8}
        children:
          - name: barrel
            facets:
              - kind: Weapon
                props: {damage: 3}
`

const loose = `
name: loose
nodes:
  - name: rock
    facets:
      - kind: Collider
        props: {radius: 1}
`

const broken = `
name: broken
nodes:
  - name: rock
    facets:
      - kind: Boulder
`

func writeScene(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REFWIRE_LOG_LEVEL", "error")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "refwire", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "validate", "clean", "watch", "kinds", "history"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	t.Cleanup(func() {
		Version = "dev"
		GitCommit = "unknown"
	})

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "refwire version")
	assert.Contains(t, out, "1.0.0-test")
	assert.Contains(t, out, "abc123")
}

func TestValidateRepairsInMemory(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out, _, err := run(t, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "1 scene")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "validate without --write must not save")
}

func TestValidateNoRepairFails(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.scene.yaml", keep)

	out, _, err := run(t, "validate", "--dir", dir, "--no-repair")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "MissingRequiredReference")
	assert.Contains(t, out, "fort/tower")
}

func TestValidateWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)

	_, _, err := run(t, "validate", path, "--dir", dir, "--write")
	require.NoError(t, err)

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)
	g, err := scenefile.New(catalog.DefaultKinds(), registry).Load(path)
	require.NoError(t, err)

	turret, ok := g.MustFind("fort/tower").Facets()[1].(*catalog.Turret)
	require.True(t, ok)
	require.NotNil(t, turret.Body)
	assert.Same(t, g.MustFind("fort/tower").Facets()[0], turret.Body)
	require.Len(t, turret.Weapons, 1)
	assert.NotNil(t, turret.Team)
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.scene.yaml", keep)
	writeScene(t, dir, "loose.scene.yaml", loose)

	out, _, err := run(t, "validate", "--dir", dir, "--format", "json")
	require.ErrorIs(t, err, errFailed)

	var results []struct {
		Scene       string           `json:"scene"`
		Passed      bool             `json:"passed"`
		Hosts       int              `json:"hosts"`
		Repaired    int              `json:"repaired"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(dir, "keep.scene.yaml"), results[0].Scene)
	assert.True(t, results[0].Passed)
	assert.Equal(t, 2, results[0].Hosts)
	assert.Equal(t, 2, results[0].Repaired)
	assert.Empty(t, results[0].Diagnostics)

	assert.False(t, results[1].Passed)
	require.Len(t, results[1].Diagnostics, 1)
	assert.Equal(t, "MissingRequiredReference", results[1].Diagnostics[0]["kind"])
}

func TestValidateUnknownKind(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "broken.scene.yaml", broken)

	_, errOut, err := run(t, "validate", "--dir", dir)
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "Boulder")
}

func TestValidateBadFormat(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.scene.yaml", keep)

	_, _, err := run(t, "validate", "--dir", dir, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--format")
}

func TestValidateNoScenes(t *testing.T) {
	_, _, err := run(t, "validate", "--dir", t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateMetricsFile(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.scene.yaml", keep)
	metrics := filepath.Join(dir, "refwire.prom")

	_, _, err := run(t, "validate", "--dir", dir, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `refwire_host_checks_total{outcome="pass"} 2`)
}

func TestValidateRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.scene.yaml", keep)
	t.Setenv("REFWIRE_HISTORY_DSN", filepath.Join(dir, "history.db"))

	_, _, err := run(t, "validate", "--dir", dir)
	require.NoError(t, err)
	_, _, err = run(t, "validate", "--dir", dir, "--no-repair")
	require.ErrorIs(t, err, errFailed)

	out, _, err := run(t, "history", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "STARTED")
	assert.Equal(t, 1, strings.Count(out, "pass"))
	assert.Equal(t, 1, strings.Count(out, "fail"))
}

func TestHistoryRequiresDSN(t *testing.T) {
	_, errOut, err := run(t, "history", "--dir", t.TempDir())
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "history.dsn")
}

func TestCleanResolvesAgain(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)

	out, _, err := run(t, "clean", path, "fort/tower", "--dir", dir, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-resolved 1 facet(s) on fort/tower")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fort/tower#Body")
	assert.Contains(t, string(data), "fort/tower/barrel#Weapon")
}

func TestCleanNoResolve(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)

	_, _, err := run(t, "validate", path, "--dir", dir, "--write")
	require.NoError(t, err)

	out, _, err := run(t, "clean", path, "fort/tower", "--dir", dir, "--yes", "--no-resolve")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 facet(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fort/tower#Body")
	assert.Contains(t, string(data), "fort#Team", "weapon team is kept")
}

func TestCleanUnknownNode(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)

	_, errOut, err := run(t, "clean", path, "fort/towr", "--dir", dir, "--yes")
	require.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "NODE NOT FOUND")
	assert.Contains(t, errOut, "fort/tower")
}

func TestKindsCommand(t *testing.T) {
	out, _, err := run(t, "kinds", "--dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "KIND")
	for _, name := range catalog.DefaultKinds().Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Descendant")
}

func TestValidateFileRelativeToDir(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "keep.level.yaml", keep)

	out, _, err := run(t, "validate", "keep.level.yaml", "--dir", dir, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "keep.level.yaml"))
}

func TestCleanWritesMetricsAfterSave(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, "keep.scene.yaml", keep)
	metrics := filepath.Join(dir, "refwire.prom")
	t.Setenv("REFWIRE_METRICS_FILE", metrics)

	_, _, err := run(t, "clean", path, "fort/tower", "--dir", dir, "--yes")
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refwire_host_checks_total")
}
