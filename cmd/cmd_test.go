package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestMigrateImportReport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "ieltsprep.db"))
	t.Setenv("LOG_MODE", "prod")

	run(t, "migrate")
	assert.FileExists(t, filepath.Join(dir, "ieltsprep.db"))

	bank := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(bank, []byte(
		"title,type,pass,qtype,prompt,options,answer,points\n"+
			"Reading 1,reading,6,short_answer,Year?,,1887,\n"+
			"Reading 1,reading,6,essay,,,,\n",
	), 0o644))

	out := run(t, "import", bank)
	assert.Contains(t, out, "Tests created:     1")
	assert.Contains(t, out, "Questions created: 1")
	assert.Contains(t, out, "Rows skipped:      1")

	out = run(t, "report", "u1")
	assert.Contains(t, out, "No test results yet for u1.")
}
