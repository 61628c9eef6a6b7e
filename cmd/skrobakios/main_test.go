package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kev1903/skrobakios/internal/projectfile"
	"github.com/kev1903/skrobakios/internal/schedule"
)

const duplex = `name: Duplex
tasks:
  - {id: a, title: Excavate, duration: 3, start: 2024-01-01}
  - {id: b, title: Footings, duration: 2, start: 2024-01-01, deps: 1FS+1}
`

func writeProject(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "duplex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(duplex), 0o644))
	return path
}

func testOptions(t *testing.T) schedule.Options {
	t.Helper()
	opts, err := options("2024-01-01")
	require.NoError(t, err)
	return opts
}

func TestOptions_InvalidToday(t *testing.T) {
	_, err := options("someday")
	require.Error(t, err)
}

func TestRunSchedule(t *testing.T) {
	path := writeProject(t)
	var out bytes.Buffer
	require.NoError(t, runSchedule(&out, path, scheduleFlags{}, testOptions(t)))
	assert.Contains(t, out.String(), "Duplex")
	assert.Contains(t, out.String(), "2024-01-05  2024-01-06  1FS+1")
	assert.Contains(t, out.String(), "2 tasks, 0 completed")

	// Printing does not touch the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, duplex, string(data))
}

func TestRunSchedule_Diff(t *testing.T) {
	path := writeProject(t)
	var out bytes.Buffer
	require.NoError(t, runSchedule(&out, path, scheduleFlags{diff: true}, testOptions(t)))
	assert.Regexp(t, `\+\s+start: "?2024-01-05"?`, out.String())
	assert.Regexp(t, `-\s+start: "?2024-01-01"?`, out.String())
}

func TestRunSchedule_Write(t *testing.T) {
	path := writeProject(t)
	var out bytes.Buffer
	require.NoError(t, runSchedule(&out, path, scheduleFlags{write: true, collapse: []string{}}, testOptions(t)))

	p, err := projectfile.Read(path)
	require.NoError(t, err)
	b := schedule.Find(p.Roots, "b")
	require.NotNil(t, b)
	assert.Equal(t, schedule.MustParseDate("2024-01-05"), b.StartDate)
	assert.Equal(t, schedule.MustParseDate("2024-01-06"), b.EndDate)
	assert.Equal(t, []schedule.Dependency{{PredecessorID: "a", LagDays: 1}}, b.Dependencies)
}

func TestRunSchedule_UnknownCollapse(t *testing.T) {
	path := writeProject(t)
	err := runSchedule(&bytes.Buffer{}, path, scheduleFlags{collapse: []string{"nope"}}, testOptions(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no task with id "nope"`)
}

func TestRunDepsParse(t *testing.T) {
	var out bytes.Buffer
	runDepsParse(&out, " 3fs+2, x ,4")
	assert.Equal(t, "3FS+2,4\n  row 3 FS lag +2\n  row 4 FS lag +0\n", out.String())
}

func TestRunDepsCheck(t *testing.T) {
	path := writeProject(t)

	var out bytes.Buffer
	ok, err := runDepsCheck(&out, path, 2, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "valid: 1\n", out.String())

	out.Reset()
	ok, err = runDepsCheck(&out, path, 1, "2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "cycle: Circular dependency: row 1 → row 2 → row 1\n", out.String())

	_, err = runDepsCheck(&out, path, 5, "1")
	require.Error(t, err)
}

func TestRunGantt(t *testing.T) {
	path := writeProject(t)
	var out bytes.Buffer
	require.NoError(t, runGantt(&out, path, 20, testOptions(t)))
	assert.Contains(t, out.String(), "Footings")
	assert.Contains(t, out.String(), "1FS+1")
}
