package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles, "nothing here", "NEEDLE")

	out, err := runCmd(t, a, "search", path, "needle")
	require.NoError(t, err)

	assert.Contains(t, out, "page 1: 2 match(es)  not highlighted")
	assert.Contains(t, out, "page 3: 1 match(es)  not highlighted")
	assert.NotContains(t, out, "page 2")
}

func TestSearchCmdCaseSensitive(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles, "NEEDLE")

	out, err := runCmd(t, a, "search", "--case-sensitive", path, "NEEDLE")
	require.NoError(t, err)

	assert.NotContains(t, out, "page 1")
	assert.Contains(t, out, "page 2: 1 match(es)")
}

func TestSearchCmdShowsHighlightColor(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", "--color", "green", path, "1", "needle")
	require.NoError(t, err)

	out, err := runCmd(t, a, "search", path, "needle")
	require.NoError(t, err)
	assert.Contains(t, out, "highlighted (green)")
}

func TestSearchCmdNoMatches(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "search", path, "haystack")
	require.NoError(t, err)
	assert.Contains(t, out, `no matches for "haystack"`)
}

func TestSearchCmdJSON(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "search", "--json", path, "needle")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "needle", got["query"])
}

func TestSearchCmdMarkdown(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	out, err := runCmd(t, a, "search", "-f", "markdown", path, "needle")
	require.NoError(t, err)
	assert.Contains(t, out, "# Search: needle")
}

func TestSearchCmdDir(t *testing.T) {
	a, tmp := newTestApp(t)
	lib := filepath.Join(tmp, "lib")
	writeDoc(t, lib, "a.pdf", "one needle")
	writeDoc(t, lib, "b/c.pdf", "needle needle")
	writeDoc(t, lib, "d.pdf", "no match")

	out, err := runCmd(t, a, "search", "--dir", lib, "--workers", "2", "needle")
	require.NoError(t, err)

	assert.Contains(t, out, "a.pdf:page 1: 1 match(es)")
	assert.Contains(t, out, "c.pdf:page 1: 2 match(es)")
	assert.NotContains(t, out, "d.pdf")
}

func TestSearchCmdArgs(t *testing.T) {
	a, tmp := newTestApp(t)

	_, err := runCmd(t, a, "search", "only-one-arg")
	assert.Error(t, err)

	_, err = runCmd(t, a, "search", "--dir", tmp, "a", "b")
	assert.Error(t, err)

	_, err = runCmd(t, a, "search", "-f", "xml", filepath.Join(tmp, "doc.pdf"), "q")
	assert.Error(t, err)
}

func TestSearchCmdMissingFile(t *testing.T) {
	a, tmp := newTestApp(t)

	_, err := runCmd(t, a, "search", filepath.Join(tmp, "missing.pdf"), "needle")
	assert.Error(t, err)
}
