package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iti/netqsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command with args, placing its output files in a temporary directory
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	full := append([]string{
		"--report-file", filepath.Join(dir, "output1.txt"),
		"--trace-file", filepath.Join(dir, "output2.txt"),
	}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), dir, err
}

func TestHelpShowsDiagram(t *testing.T) {
	out, _, err := execute(t, "-h")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, netqsim.Diagram))
	assert.Contains(t, out, "--no-random")
	assert.Contains(t, out, "--count")
}

func TestConflictingBounds(t *testing.T) {
	_, dir, err := execute(t, "-t", "50", "-x", "10")
	assert.ErrorIs(t, err, netqsim.ErrConflictingBounds)

	_, statErr := os.Stat(filepath.Join(dir, "output1.txt"))
	assert.True(t, os.IsNotExist(statErr), "no output is written for a bad command line")
}

func TestRejectsArguments(t *testing.T) {
	_, _, err := execute(t, "extra")
	assert.Error(t, err)

	_, _, err = execute(t, "-x", "0")
	assert.ErrorIs(t, err, netqsim.ErrNonPositiveBound)
}

func TestDeterministicRun(t *testing.T) {
	out, dir, err := execute(t, "-n", "-x", "3")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, netqsim.Diagram))
	assert.Contains(t, out, "Total simulated time = 20 sec\n")
	assert.Contains(t, out, "Total Px served by S1 = 3\n")
	assert.NotContains(t, out, "[B1 5]")

	report, err := os.ReadFile(filepath.Join(dir, "output1.txt"))
	require.NoError(t, err)
	assert.Equal(t, out, string(report))

	trace, err := os.ReadFile(filepath.Join(dir, "output2.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(trace)), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, netqsim.TraceHeader, lines[0])
	assert.Equal(t, "S1,4,Px,16,16,4,20,0,4,0", lines[8])
}

func TestDebugOutput(t *testing.T) {
	out, _, err := execute(t, "-n", "-x", "1", "-d")
	require.NoError(t, err)
	assert.Contains(t, out, "[B1 5]")
	assert.Contains(t, out, "5 (Event B1)")
	assert.NotContains(t, out, "{R starts work}")
	assert.Contains(t, out, "Performance metrics for the simulation:")

	out, _, err = execute(t, "-n", "-x", "1", "-dd")
	require.NoError(t, err)
	assert.Contains(t, out, "{R starts work}")
	assert.Contains(t, out, "Total Px served by R = 1, Total Py served by R = 0")
}

func TestConfigFileAndDumps(t *testing.T) {
	cfgDir := t.TempDir()
	cfgFile := filepath.Join(cfgDir, "model.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("server1:\n  mean: 2\n  sigma: 0.6\n  dist: normal\n"), 0o644))

	dumpFile := filepath.Join(cfgDir, "trace.json")
	savedFile := filepath.Join(cfgDir, "saved.yaml")
	out, _, err := execute(t, "-n", "-t", "30", "--config", cfgFile, "--dump", dumpFile, "--save-config", savedFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Mean service time for S1 = 2 sec\n")

	saved, err := netqsim.ReadSimCfg(savedFile, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, saved.Server1.Mean)
	assert.Equal(t, 7.0, saved.Server2.Mean)
	assert.True(t, saved.Deterministic)

	_, err = os.Stat(dumpFile)
	assert.NoError(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("NETQSIM_SERVER2_MEAN", "3")
	out, _, err := execute(t, "-n", "-x", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Mean service time for S2 = 3 sec\n")
}

func TestSeedRepeatsRun(t *testing.T) {
	first, _, err := execute(t, "--seed", "4242", "-x", "5")
	require.NoError(t, err)

	second, _, err := execute(t, "--seed", "4242", "-x", "5")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, _, err = execute(t, "--seed", "4294944440", "-x", "5")
	assert.ErrorContains(t, err, "seed")
}

func TestSavedConfigRecordsSeed(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "saved.json")
	_, _, err := execute(t, "-x", "2", "--save-config", saved)
	require.NoError(t, err)

	cfg, err := netqsim.ReadSimCfg(saved, false, nil)
	require.NoError(t, err)
	assert.NotZero(t, cfg.Seed)
	assert.LessOrEqual(t, cfg.Seed, netqsim.MaxSeed)
}
