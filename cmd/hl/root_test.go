package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/4thel00z/highlights/internal"
	"github.com/4thel00z/highlights/internal/doctest"
	"github.com/stretchr/testify/require"
)

const twoNeedles = "the needle and another needle\nno match on this line"

// newTestApp returns an app whose config scope lives in a temp dir and whose
// documents are doctest files.
func newTestApp(t *testing.T) (*app, string) {
	t.Helper()
	tmp := t.TempDir()
	return &app{
		resolver: internal.NewScopeResolverAt(tmp, tmp),
		engine:   doctest.NewEngine(),
	}, tmp
}

func writeDoc(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, doctest.Write(path, doctest.NewFile(pages...)))
	return path
}

func runCmd(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test", a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd("1.0.0", nil)

	if cmd == nil {
		t.Fatal("NewRootCmd returned nil")
	}

	if cmd.Use != "hl" {
		t.Errorf("expected Use='hl', got %q", cmd.Use)
	}

	if cmd.Version != "1.0.0" {
		t.Errorf("expected Version='1.0.0', got %q", cmd.Version)
	}
}

func TestRootCmdHasFlags(t *testing.T) {
	cmd := NewRootCmd("1.0.0", nil)

	flags := []string{"scope", "json", "verbose"}
	for _, name := range flags {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			t.Errorf("expected persistent flag %q to exist", name)
		}
	}
}

func TestRootCmdVersion(t *testing.T) {
	versions := []string{"dev", "1.0.0", "2.3.4-beta"}

	for _, v := range versions {
		cmd := NewRootCmd(v, nil)
		if cmd.Version != v {
			t.Errorf("expected version %q, got %q", v, cmd.Version)
		}
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	a, _ := newTestApp(t)
	cmd := NewRootCmd("test", a)

	for _, name := range []string{"search", "toggle", "undo", "redo", "list", "colors", "config", "watch"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q", name)
		}
	}
}
