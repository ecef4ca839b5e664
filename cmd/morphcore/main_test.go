package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphcore/internal/core"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MORPHCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("MORPHCORE_SQLITE_PATH", filepath.Join(dir, "morphcore.db"))
	t.Setenv("MORPHCORE_BLOB_DRIVER", "fs")
	t.Setenv("MORPHCORE_BLOB_FS_ROOT", filepath.Join(dir, "bundles"))
	t.Setenv("MORPHCORE_LOG_LEVEL", "error")
	t.Setenv("MORPHCORE_LOCALE", "en")
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCrossPrintsGeneAndOffspringTables(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "cross", "--p1", "pastel het albino", "--p2", "albino")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Pastel (incomplete_dominant)")
	assert.Contains(t, out, "Albino (recessive)")
	assert.Contains(t, out, "Offspring")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "1/2")
}

func TestCrossJSONReportsSelectionsAndSumsToOne(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "cross", "--json", "--p1", "bumblebee", "--p2", "het clown")
	require.Equal(t, 0, code, errOut)

	var doc crossOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "ball-python", doc.Species)
	assert.Equal(t, core.StateHeterozygous, doc.Parent1["pastel"])
	assert.Equal(t, core.StateHeterozygous, doc.Parent1["spider"])
	assert.Equal(t, core.StateHeterozygous, doc.Parent2["clown"])
	assert.Equal(t, []string{"bumblebee"}, doc.Aliases)

	var sum float64
	for _, row := range doc.Report.Combined {
		sum += row.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, doc.Report.Genes, 3)
}

func TestCrossHonoursLocale(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "cross", "--p1", "het albino", "--p2", "het albino", "--locale", "pt-BR")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "66,67")
}

func TestCrossRejectsUnrecognizedPhrases(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI(t, "cross", "--p1", "pastel, sparkly", "--p2", "albino")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unrecognized parent description")
	assert.Contains(t, errOut, "sparkly")
}

func TestCrossLoadsCatalogFile(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "corn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`slug: corn-snake
name: Corn Snake
genes:
  - id: amel
    name: Amelanistic
    shorthand: amel
    mode: recessive
  - id: anery
    name: Anerythristic
    shorthand: anery
    mode: recessive
aliases:
  - key: snow
    label: Snow
    components:
      - {gene: amel, state: homozygous}
      - {gene: anery, state: homozygous}
`), 0o600))

	code, out, errOut := runCLI(t, "cross", "--catalog", path, "--p1", "amel anery", "--p2", "het amel het anery")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Snow")

	code, out, errOut = runCLI(t, "catalog", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "corn-snake")
}

func TestResolveListsCandidates(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "resolve", "het alb", "banana")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"het alb"`)
	assert.Contains(t, out, "Het Albino")
	assert.Contains(t, out, "exact")
	assert.Contains(t, out, "no matches")
}

func TestCatalogCommandsRoundTripThroughArchive(t *testing.T) {
	setupEnv(t)

	code, out, errOut := runCLI(t, "catalog", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "ball-python")
	assert.Contains(t, out, "leopard-gecko")

	code, out, errOut = runCLI(t, "catalog", "show", "leopard-gecko")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Super Snow")
	assert.Contains(t, out, "RAPTOR")

	code, out, errOut = runCLI(t, "catalog", "export", "ball-python")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "slug: ball-python")

	code, out, errOut = runCLI(t, "catalog", "export", "ball-python", "--blob", "--format", "json")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "catalogs/ball-python.json")

	code, out, errOut = runCLI(t, "catalog", "bundles")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "catalogs/ball-python.json")

	code, out, errOut = runCLI(t, "catalog", "import", "--blob", "catalogs/ball-python.json")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "imported ball-python")
}

func TestCatalogImportArgumentValidation(t *testing.T) {
	setupEnv(t)
	code, _, errOut := runCLI(t, "catalog", "import")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "needs a FILE or --blob KEY")

	code, _, errOut = runCLI(t, "catalog", "export", "ball-python", "--format", "toml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported bundle format")

	code, _, errOut = runCLI(t, "catalog", "show", "axolotl")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "species axolotl not found")
}

func TestPluginsListsBundledSpecies(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "plugins")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "ballpython")
	assert.Contains(t, out, "leopardgecko_albino_strains")
}

func TestInvalidConfigurationFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("MORPHCORE_STORAGE_DRIVER", "cassandra")
	code, _, errOut := runCLI(t, "catalog", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown storage driver")
}

func TestPrometheusMetricsWrittenToTextfile(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "morphcore.prom")
	t.Setenv("MORPHCORE_METRICS", "prometheus")
	t.Setenv("MORPHCORE_METRICS_TEXTFILE", path)

	code, _, errOut := runCLI(t, "cross", "--p1", "pastel", "--p2", "albino")
	require.Equal(t, 0, code, errOut)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `morphcore_service_operations_total{operation="cross",status="success"} 1`)
	assert.Contains(t, string(data), "morphcore_service_operation_duration_seconds")
}

func TestExpvarMetricsLoggedOnExit(t *testing.T) {
	setupEnv(t)
	t.Setenv("MORPHCORE_METRICS", "expvar")
	t.Setenv("MORPHCORE_LOG_LEVEL", "info")
	t.Setenv("MORPHCORE_LOG_FORMAT", "json")

	code, _, errOut := runCLI(t, "cross", "--p1", "pastel", "--p2", "albino")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, `"msg":"operation metrics"`)
	assert.Contains(t, errOut, `"cross"`)
}

func TestTraceFileReceivesSpans(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "trace.jsonl")
	t.Setenv("MORPHCORE_TRACE", path)

	for i := 0; i < 2; i++ {
		code, _, errOut := runCLI(t, "cross", "--p1", "pastel", "--p2", "albino")
		require.Equal(t, 0, code, errOut)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	crosses := 0
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var entry core.JSONTraceEntry
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry.Operation == "cross" {
			crosses++
			assert.Equal(t, "success", entry.Status)
		}
	}
	assert.Equal(t, 2, crosses, "trace file should be appended to across runs")
}

func TestTraceToStderr(t *testing.T) {
	setupEnv(t)
	t.Setenv("MORPHCORE_TRACE", "stderr")
	code, _, errOut := runCLI(t, "cross", "--p1", "pastel", "--p2", "albino")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, `"operation":"cross"`)
}

func TestMainUsesExitFunc(t *testing.T) {
	setupEnv(t)
	got := -1
	prevExit, prevArgs := exitFunc, os.Args
	t.Cleanup(func() { exitFunc, os.Args = prevExit, prevArgs })
	exitFunc = func(code int) { got = code }
	os.Args = []string{"morphcore", "catalog", "list"}

	stdout := os.Stdout
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	os.Stdout = devnull
	t.Cleanup(func() { os.Stdout = stdout; devnull.Close() })

	main()
	assert.Equal(t, 0, got)
}
