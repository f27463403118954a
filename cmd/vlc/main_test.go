package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := rootCmd()
	root.SetArgs(append([]string{"--no-color"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

const pointDoc = `{
	"data": {"values": [{"a": 1, "b": 2}, {"a": 3, "b": 5}]},
	"mark": "point",
	"encoding": {"x": {"field": "a", "type": "Q"}, "y": {"field": "b", "type": "Q"}}
}`

func TestCompile_Stdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "point.json", pointDoc)
	out, errOut, err := run(t, "", "compile", path)
	require.NoError(t, err)
	assert.Empty(t, errOut)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "https://vega.github.io/schema/vega/v3.json", v["$schema"])
	assert.Contains(t, out, "\n  ")
}

func TestCompile_StdinToFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.json")
	out, _, err := run(t, pointDoc, "compile", "-", "-o", dest, "--compact")
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, []byte("\n")))
	assert.True(t, json.Valid(b))
}

func TestCompile_Config(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "point.json", pointDoc)
	cfg := writeFile(t, dir, "config.json", `{"cell": {"width": 480}}`)

	out, _, err := run(t, "", "compile", path, "--config", cfg, "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `"width":480`)
}

func TestCompile_PrintsWarnings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "padded.json", `{
		"mark": "point",
		"encoding": {"x": {"field": "a", "type": "Q", "scale": {"padding": 5}}}
	}`)
	_, errOut, err := run(t, "", "compile", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "warning: [scale-property-unsupported]")
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"mark": "barr"}`)

	_, _, err := run(t, "", "compile", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean 'bar'?")

	_, _, err = run(t, "", "compile", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")

	_, _, err = run(t, "", "compile", bad, "--stats-db", filepath.Join(dir, "x.db"))
	require.Error(t, err)
}

func TestCompile_StatsDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cars.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE cars (origin TEXT, hp REAL)`)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		_, err = db.Exec(`INSERT INTO cars VALUES (?, ?)`, fmt.Sprintf("o%d", i), 40+i*15)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	path := writeFile(t, dir, "cars.json", `{
		"data": {"url": "cars.csv", "format": {"type": "csv"}},
		"mark": "point",
		"encoding": {
			"x": {"field": "hp", "type": "Q"},
			"color": {"field": "origin", "type": "N"}
		}
	}`)
	out, _, err := run(t, "", "compile", path, "--stats-db", dbPath, "--stats-table", "cars", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `"scheme":"category20"`)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", pointDoc)
	bad := writeFile(t, dir, "bad.json", `{"mark": "line", "encoding": {"x": {"field": "d", "type": "T"}}}`)

	out, _, err := run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, _, err = run(t, "", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Equal(t, "1 of 2 specifications invalid", err.Error())
}
