package main

import (
	"encoding/json"
	"testing"

	"github.com/4thel00z/highlights/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedoCmdReappliesAdd(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "redo", path)
	assert.ErrorIs(t, err, internal.ErrNothingToRedo)

	_, err = runCmd(t, a, "toggle", "--color", "green", path, "1", "needle")
	require.NoError(t, err)
	_, err = runCmd(t, a, "undo", path)
	require.NoError(t, err)
	require.Equal(t, 0, diskAnnotations(t, path))

	out, err := runCmd(t, a, "redo", path)
	require.NoError(t, err)
	assert.Contains(t, out, `redid added of "needle" on page 1`)
	assert.Equal(t, 2, diskAnnotations(t, path))

	out, err = runCmd(t, a, "search", path, "needle")
	require.NoError(t, err)
	assert.Contains(t, out, "highlighted (green)")

	// the redone add can be undone again
	_, err = runCmd(t, a, "undo", path)
	require.NoError(t, err)
	assert.Equal(t, 0, diskAnnotations(t, path))
}

func TestRedoCmdReappliesRemove(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", "--color", "red", path, "1", "needle")
	require.NoError(t, err)
	_, err = runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)
	_, err = runCmd(t, a, "undo", path)
	require.NoError(t, err)
	require.Equal(t, 2, diskAnnotations(t, path))

	out, err := runCmd(t, a, "redo", "--json", path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "removed", got["redone"])
	assert.Equal(t, 0, diskAnnotations(t, path))
}

func TestRedoCmdClearedByToggle(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles, "a haystack")

	_, err := runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)
	_, err = runCmd(t, a, "undo", path)
	require.NoError(t, err)
	_, err = runCmd(t, a, "toggle", path, "2", "haystack")
	require.NoError(t, err)

	_, err = runCmd(t, a, "redo", path)
	assert.ErrorIs(t, err, internal.ErrNothingToRedo)
	assert.Equal(t, 1, diskAnnotations(t, path))
}
