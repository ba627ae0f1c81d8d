package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `name: orders
format:
  has_column_header: true
schema:
  row_id_column: true
  columns:
    - name: x
      type: int
    - name: y
      type: double
`

func writeFixtures(t *testing.T, data string) (cfgPath, dataPath string) {
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "orders.yaml")
	dataPath = filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(dataPath, []byte(data), 0o600))
	return cfgPath, dataPath
}

func execute(t *testing.T, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestReadCSV(t *testing.T) {
	cfg, data := writeFixtures(t, "id,x,y\na,1,2.5\nb,,3.0\n")

	out, _, err := execute(t, "read", "-c", cfg, "--format", "csv", data)
	require.NoError(t, err)
	assert.Equal(t, "id,x,y\na,1,2.5\nb,,3\n", out)
}

func TestReadMaxRowsFlag(t *testing.T) {
	cfg, data := writeFixtures(t, "id,x,y\na,1,2.5\nb,2,3.0\nc,3,1\n")

	out, _, err := execute(t, "read", "-c", cfg, "--format", "json", "--max-rows", "2", data)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestReadOutputDir(t *testing.T) {
	cfg, data := writeFixtures(t, "id,x,y\na,1,2.5\n")
	outDir := filepath.Join(t.TempDir(), "out")

	_, _, err := execute(t, "read", "-c", cfg, "--format", "arrow", "--output-dir", outDir, data)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(outDir, "orders.arrow"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestReadFailsOnBadRow(t *testing.T) {
	cfg, data := writeFixtures(t, "id,x,y\na,1,2.5\nd,notanint,1.0\n")

	_, _, err := execute(t, "read", "-c", cfg, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line: 3 (d)")
}

func TestReadNeedsConfig(t *testing.T) {
	_, _, err := execute(t, "read", "whatever.csv")
	assert.ErrorContains(t, err, "--config is required")
}

func TestPreviewShowsErrorRow(t *testing.T) {
	cfg, data := writeFixtures(t, "id,x,y\na,1,2.5\nd,notanint,1.0\n")

	out, errOut, err := execute(t, "preview", "-c", cfg, data)
	require.NoError(t, err)
	assert.Contains(t, out, "ERROR_ROW (d)")
	assert.Contains(t, errOut, "preview stopped")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "filereader v"+version)
}
