package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverel/edge-search-cli/internal/domain"
)

func TestVersionCommandPrintsBuildInfo(t *testing.T) {
	configDir := t.TempDir()

	stdout, _, err := executeCLI(t, configDir, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "es dev")
	assert.Contains(t, stdout, "commit none")
}

func TestProfilesCommandListsCandidates(t *testing.T) {
	configDir := t.TempDir()
	writeProfilesFixture(t, t.TempDir(), "Default", "Profile 1", "System Profile", "Crashpad")

	stdout, _, err := executeCLI(t, configDir, "profiles")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Edge Profiles")
	assert.Contains(t, stdout, "Default")
	assert.Contains(t, stdout, "Profile 1")
	assert.NotContains(t, stdout, "System Profile")
	assert.NotContains(t, stdout, "Crashpad")
}

func TestProfilesCommandJSONOutput(t *testing.T) {
	configDir := t.TempDir()
	writeProfilesFixture(t, t.TempDir(), "Default", "Profile 1")

	stdout, _, err := executeCLI(t, configDir, "profiles", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"Name": "Default"`)
	assert.Contains(t, stdout, `"Name": "Profile 1"`)
}

func TestProfilesCommandMissingRootReturnsError(t *testing.T) {
	configDir := t.TempDir()
	setHomeEnv(t, t.TempDir())

	_, _, err := executeCLI(t, configDir, "profiles")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProfileRootNotFound)
}

func TestQueriesCommandSummarizesPool(t *testing.T) {
	configDir := t.TempDir()
	writeQueriesFixture(t, configDir,
		"best pizza near me",
		`"vpn deals"`,
		"best pizza near me",
		"weather tomorrow",
		"vpn deals",
	)

	stdout, _, err := executeCLI(t, configDir, "queries")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Query Pool")
	assert.Contains(t, stdout, "3 unique of 5 total")
	assert.Contains(t, stdout, "2 queries appear more than once")
	assert.Contains(t, stdout, `"best pizza near me" seen 2 times`)
}

func TestQueriesCommandJSONOutput(t *testing.T) {
	configDir := t.TempDir()
	writeQueriesFixture(t, configDir, "alpha", "beta", "alpha")

	stdout, _, err := executeCLI(t, configDir, "queries", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"Total": 3`)
	assert.Contains(t, stdout, `"Unique": 2`)
}

func TestQueriesCommandMissingFileReturnsError(t *testing.T) {
	configDir := t.TempDir()

	_, _, err := executeCLI(t, configDir, "queries")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open query source")
}

func TestRunsCommandEmptyHistory(t *testing.T) {
	configDir := t.TempDir()

	stdout, _, err := executeCLI(t, configDir, "runs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run History")
	assert.Contains(t, stdout, "No runs recorded yet.")
}

func TestRunsCommandRendersPersistedRuns(t *testing.T) {
	configDir := t.TempDir()
	writeRunsFixture(t, configDir)

	stdout, _, err := executeCLI(t, configDir, "runs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "runs: 2")
	assert.Contains(t, stdout, "11112222")
	assert.Contains(t, stdout, "33334444")
	assert.Contains(t, stdout, "Profile 1")
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "aborted")
}

func TestRunsCommandLastLimitsOutput(t *testing.T) {
	configDir := t.TempDir()
	writeRunsFixture(t, configDir)

	stdout, _, err := executeCLI(t, configDir, "runs", "--last", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "11112222")
	assert.NotContains(t, stdout, "33334444")
}

func TestRunsCommandJSONOutput(t *testing.T) {
	configDir := t.TempDir()
	writeRunsFixture(t, configDir)

	stdout, _, err := executeCLI(t, configDir, "runs", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"Profile": "Profile 1"`)
}

func TestRunCommandRejectsUnknownPolicy(t *testing.T) {
	configDir := t.TempDir()

	_, _, err := executeCLI(t, configDir, "run", "--policy", "teleport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown copy policy")
}

func TestRunCommandRequiresQueries(t *testing.T) {
	configDir := t.TempDir()

	_, _, err := executeCLI(t, configDir, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open query source")
}

func TestRunCommandRejectsEmptyQueryPool(t *testing.T) {
	configDir := t.TempDir()
	writeQueriesFixture(t, configDir, "", "   ", "")

	_, _, err := executeCLI(t, configDir, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no queries in")
}

func TestRunCommandValidatesCountFlag(t *testing.T) {
	configDir := t.TempDir()
	writeQueriesFixture(t, configDir, "alpha", "beta")
	writeProfilesFixture(t, t.TempDir(), "Default", "Profile 1")

	_, _, err := executeCLIWithInput(t, configDir, "1\n", "run", "--count", "-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search count must be at least 1")
}

func TestParseSearchCountBlankDefaultsToFive(t *testing.T) {
	count, err := parseSearchCount("")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	count, err = parseSearchCount("  \n")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	count, err = parseSearchCount(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, count)

	_, err = parseSearchCount("many")
	require.ErrorIs(t, err, domain.ErrInvalidSelection)

	_, err = parseSearchCount("0")
	require.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestRunCommandAbortsWhenInputClosed(t *testing.T) {
	configDir := t.TempDir()
	writeQueriesFixture(t, configDir, "alpha")
	writeProfilesFixture(t, t.TempDir(), "Default")

	_, _, err := executeCLI(t, configDir, "run")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

func TestKillCommandDryRunWithNoMatches(t *testing.T) {
	configDir := t.TempDir()
	writeConfigFixture(t, configDir, strings.Join([]string{
		"[browser]",
		`executables = ["es-test-no-such-process"]`,
		"",
	}, "\n"))

	stdout, _, err := executeCLI(t, configDir, "kill", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No Edge processes running.")
}

func TestKillCommandSweepWithNoMatches(t *testing.T) {
	configDir := t.TempDir()
	writeConfigFixture(t, configDir, strings.Join([]string{
		"[browser]",
		`executables = ["es-test-no-such-process"]`,
		"",
	}, "\n"))

	stdout, _, err := executeCLI(t, configDir, "kill")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No Edge processes running.")
}

func TestConfigFileOverridesQueryPath(t *testing.T) {
	configDir := t.TempDir()
	customPath := filepath.Join(t.TempDir(), "custom-queries.txt")
	require.NoError(t, os.WriteFile(customPath, []byte("alpha\nbeta\n"), 0o644))
	writeConfigFixture(t, configDir, strings.Join([]string{
		"[queries]",
		"path = '" + customPath + "'",
		"",
	}, "\n"))

	stdout, _, err := executeCLI(t, configDir, "queries")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 unique of 2 total")
}

func executeCLI(t *testing.T, configDir string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, configDir, "", args...)
}

func executeCLIWithInput(t *testing.T, configDir string, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ES_CONFIG_DIR", configDir)

	app := &app{}
	defer app.close()

	root := newRootCmd(app)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(strings.NewReader(input))
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// setHomeEnv points every home-relative lookup at dir, covering the
// platform-specific variables the profile root resolution reads.
func setHomeEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	t.Setenv("LOCALAPPDATA", filepath.Join(dir, "AppData", "Local"))
}

func writeProfilesFixture(t *testing.T, home string, names ...string) string {
	t.Helper()
	setHomeEnv(t, home)

	root, err := domain.EdgeUserDataRoot(runtime.GOOS)
	require.NoError(t, err)

	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o755))
	}

	return root
}

func writeQueriesFixture(t *testing.T, configDir string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "queries.txt"), []byte(content), 0o644))
}

func writeConfigFixture(t *testing.T, configDir string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))
}

func writeRunsFixture(t *testing.T, configDir string) {
	t.Helper()

	runs := `version = 1

[[runs]]
id = "11112222-aaaa-4bbb-8ccc-000000000001"
profile = "Profile 1"
policy = "auto"
final = "completed"
started_at = "2026-03-01T10:00:00Z"
finished_at = "2026-03-01T10:02:00Z"

[[runs.attempts]]
number = 1
terminal = "completed"
started_at = "2026-03-01T10:00:00Z"
finished_at = "2026-03-01T10:02:00Z"

[[runs.attempts.queries]]
query = "best pizza near me"
outcome = "success"

[[runs]]
id = "33334444-bbbb-4ccc-8ddd-000000000002"
profile = "Default"
policy = "assisted"
final = "aborted"
started_at = "2026-03-01T09:00:00Z"
finished_at = "2026-03-01T09:01:00Z"
`

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "runs.toml"), []byte(runs), 0o600))
}
