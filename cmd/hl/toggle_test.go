package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/4thel00z/highlights/internal"
	"github.com/4thel00z/highlights/internal/doctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diskAnnotations(t *testing.T, path string) int {
	t.Helper()
	n, err := doctest.AnnotationCount(path)
	require.NoError(t, err)
	return n
}

func TestToggleCmdAlternates(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)
	assert.Contains(t, out, `added 2 highlight(s) for "needle" on page 1`)
	assert.Equal(t, 2, diskAnnotations(t, path))

	out, err = runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)
	assert.Contains(t, out, `removed 2 highlight(s) for "needle" on page 1`)
	assert.Equal(t, 0, diskAnnotations(t, path))
}

func TestToggleCmdColor(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", "--color", "#00ff00", path, "1", "needle")
	require.NoError(t, err)

	f, err := doctest.Read(path)
	require.NoError(t, err)
	require.Len(t, f.Pages[0].Annotations, 2)
	assert.Equal(t, []float64{0, 1, 0}, f.Pages[0].Annotations[0].Color)
}

func TestToggleCmdUnknownColor(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", "--color", "mauve-ish", path, "1", "needle")
	assert.True(t, errors.Is(err, internal.ErrInvalidColor), "got %v", err)
	assert.Equal(t, 0, diskAnnotations(t, path))
}

func TestToggleCmdNoColor(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "toggle", "--no-color", path, "1", "needle")
	assert.ErrorIs(t, err, internal.ErrPreconditionNotMet)
	assert.Contains(t, out, "choose a color")
	assert.Equal(t, 0, diskAnnotations(t, path))
}

func TestToggleCmdErrors(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", path, "one", "needle")
	assert.Error(t, err)

	_, err = runCmd(t, a, "toggle", path, "1", "haystack")
	assert.ErrorIs(t, err, internal.ErrNoOccurrences)

	_, err = runCmd(t, a, "toggle", path, "9", "needle")
	assert.ErrorIs(t, err, internal.ErrPageOutOfRange)
}

func TestToggleCmdJSON(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "toggle", "--json", path, "1", "needle")
	require.NoError(t, err)

	var got struct {
		Outcome     string `json:"outcome"`
		Page        int    `json:"page"`
		Annotations []int  `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "added", got.Outcome)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, []int{1, 2}, got.Annotations)
}

func TestToggleCmdWritesMetrics(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)
	prom := filepath.Join(tmp, "hl.prom")

	_, err := runCmd(t, a, "config", "set", "metrics.textfile", prom)
	require.NoError(t, err)

	_, err = runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `highlights_toggles_total{outcome="added"} 1`)
}
