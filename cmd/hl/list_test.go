package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles, "needle again")

	out, err := runCmd(t, a, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No highlights.")

	_, err = runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)
	_, err = runCmd(t, a, "toggle", "--color", "cyan", path, "2", "again")
	require.NoError(t, err)

	out, err = runCmd(t, a, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "page 1  #1  yellow")
	assert.Contains(t, out, "page 1  #2  yellow")
	assert.Contains(t, out, "page 2  #3  cyan")

	out, err = runCmd(t, a, "list", "--page", "2", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "page 1")
	assert.Contains(t, out, "again")
}

func TestListCmdJSON(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "toggle", path, "1", "needle")
	require.NoError(t, err)

	out, err := runCmd(t, a, "list", "--json", path)
	require.NoError(t, err)

	var got []struct {
		Page      int    `json:"page"`
		ID        int    `json:"id"`
		ColorName string `json:"color_name"`
		Subject   string `json:"subject"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "yellow", got[0].ColorName)
	assert.Equal(t, "needle", got[0].Subject)
}

func TestListCmdPageOutOfRange(t *testing.T) {
	a, tmp := newTestApp(t)
	path := writeDoc(t, tmp, "doc.pdf", twoNeedles)

	_, err := runCmd(t, a, "list", "--page", "4", path)
	assert.Error(t, err)
}
