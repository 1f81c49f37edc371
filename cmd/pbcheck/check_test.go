package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPBCheck(t *testing.T, opb string, sub string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "problem.opb")
	require.NoError(t, os.WriteFile(path, []byte(opb), 0o644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{sub, path})
	require.NoError(t, root.Execute())
	return out.String()
}

func TestCheckReportsSatisfiable(t *testing.T) {
	out := runPBCheck(t, "x1 + x2 >= 1;\n~x1 + x2 >= 1;\nx1 >= 1;\n", "check")
	assert.Contains(t, out, "SATISFIABLE")
}

func TestCheckReportsUnsatisfiable(t *testing.T) {
	out := runPBCheck(t, "x1 >= 1;\n~x1 >= 1;\n", "check")
	assert.Contains(t, out, "UNSATISFIABLE")
}

func TestStatsReportsCounters(t *testing.T) {
	out := runPBCheck(t, "x1 + x2 + x3 >= 2;\n", "stats")
	assert.Contains(t, out, "constraints:")
	assert.Contains(t, out, "predicates:")
}
