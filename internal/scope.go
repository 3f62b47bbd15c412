package internal

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	AppName        = "highlights"
	ProjectDirName = ".highlights"
)

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

// Scope is a directory holding configuration.
type Scope struct {
	Type ScopeType
	Root string // directory the scope applies to
	Dir  string // directory holding config.yaml
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.Dir, "config.yaml")
}

type ScopeResolver struct {
	configHome string
	workDir    string
}

func NewScopeResolver() *ScopeResolver {
	wd, _ := os.Getwd()
	return NewScopeResolverAt(xdg.ConfigHome, wd)
}

// NewScopeResolverAt resolves scopes against explicit directories instead of
// the XDG config home and the working directory.
func NewScopeResolverAt(configHome, workDir string) *ScopeResolver {
	return &ScopeResolver{configHome: configHome, workDir: workDir}
}

func (r *ScopeResolver) Global() Scope {
	home, _ := os.UserHomeDir()
	return Scope{
		Type: ScopeGlobal,
		Root: home,
		Dir:  filepath.Join(r.configHome, AppName),
	}
}

// Project finds the nearest .highlights directory above the working
// directory.
func (r *ScopeResolver) Project() (Scope, bool) {
	dir := r.workDir
	if dir == "" {
		return Scope{}, false
	}
	for {
		candidate := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return Scope{Type: ScopeProject, Root: dir, Dir: candidate}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve returns the project scope when one exists, unless explicit asks
// for the global one.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
