package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindExternal(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "hl-test")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho ok"), 0755); err != nil {
		t.Fatal(err)
	}

	orig := os.Getenv("PATH")
	t.Setenv("PATH", tmp+":"+orig)

	path, err := findExternal("test")
	if err != nil {
		t.Fatalf("expected to find hl-test, got error: %v", err)
	}
	if path != script {
		t.Errorf("expected %s, got %s", script, path)
	}
}

func TestFindExternalNotFound(t *testing.T) {
	_, err := findExternal("nonexistent-command-12345")
	if err == nil {
		t.Fatal("expected error for nonexistent command")
	}
}

func TestListExternalCommands(t *testing.T) {
	tmp := t.TempDir()

	for _, s := range []string{"hl-ocr", "hl-export", "hl-merge"} {
		if err := os.WriteFile(filepath.Join(tmp, s), []byte("#!/bin/sh"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(tmp, "other-script"), []byte("#!/bin/sh"), 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", tmp+":"+os.Getenv("PATH"))

	found := make(map[string]bool)
	for _, c := range listExternalCommands() {
		found[c] = true
	}

	for _, expected := range []string{"ocr", "export", "merge"} {
		if !found[expected] {
			t.Errorf("expected to find %q in external commands", expected)
		}
	}
	if found["other-script"] {
		t.Error("non-hl script should not be listed")
	}
}

func TestExternalNameNotExecutable(t *testing.T) {
	tmp := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmp, "hl-noexec"), []byte("#!/bin/sh"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "hl-hello"), []byte("#!/bin/sh"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(tmp)
	got := make(map[string]string)
	for _, e := range entries {
		got[e.Name()] = externalName(tmp, e)
	}

	if got["hl-hello"] != "hello" {
		t.Errorf("expected 'hello', got %q", got["hl-hello"])
	}
	if got["hl-noexec"] != "" {
		t.Errorf("expected empty string for non-executable, got %q", got["hl-noexec"])
	}
}

func TestExternalEnv(t *testing.T) {
	env := externalEnv("1.0.0", "/cfg/highlights")

	want := map[string]string{
		"HL_VERSION":    "1.0.0",
		"HL_CONFIG_DIR": "/cfg/highlights",
	}
	seen := make(map[string]bool)
	for _, e := range env {
		key, value, _ := strings.Cut(e, "=")
		switch key {
		case "HL_VERSION", "HL_CONFIG_DIR":
			if value != want[key] {
				t.Errorf("%s = %q, want %q", key, value, want[key])
			}
			seen[key] = true
		case "HL_BIN", "HL_ROOT":
			seen[key] = true
		}
	}

	for _, key := range []string{"HL_VERSION", "HL_BIN", "HL_ROOT", "HL_CONFIG_DIR"} {
		if !seen[key] {
			t.Errorf("%s not found in env", key)
		}
	}
}
