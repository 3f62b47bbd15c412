package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executables named hl-<name> on PATH run as "hl <name>".
const externalPrefix = "hl-"

func findExternal(name string) (string, error) {
	binary := externalPrefix + name
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s not found in PATH", name, binary)
	}
	return path, nil
}

func listExternalCommands() []string {
	var commands []string
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := externalName(dir, entry)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			commands = append(commands, name)
		}
	}
	return commands
}

func externalName(dir string, entry os.DirEntry) string {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, externalPrefix) {
		return ""
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.Mode()&0111 == 0 {
		return ""
	}
	return strings.TrimPrefix(name, externalPrefix)
}

// executeExternal runs an hl-* plugin with the working directory and the
// resolved config scope passed through the environment.
func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binaryPath, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Env = externalEnv(version, newApp().resolver.Resolve("").Dir)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func externalEnv(version, configDir string) []string {
	bin, _ := os.Executable()
	cwd, _ := os.Getwd()

	return append(os.Environ(),
		"HL_VERSION="+version,
		"HL_BIN="+bin,
		"HL_ROOT="+cwd,
		"HL_CONFIG_DIR="+configDir,
	)
}
