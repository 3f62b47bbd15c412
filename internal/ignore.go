package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".hlignore"

// defaultIgnores keeps folder searches away from half-written saves.
var defaultIgnores = []string{"*" + tempSuffix, ProjectDirName + "/"}

// IgnoreMatcher applies the .gitignore files below a root and then the
// root's .hlignore file.
type IgnoreMatcher struct {
	patterns []gitignore.Pattern
	root     string
}

func NewIgnoreMatcher(root string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{root: root}
	for _, line := range defaultIgnores {
		m.patterns = append(m.patterns, gitignore.ParsePattern(line, nil))
	}

	fs := osfs.New(root)
	gitPatterns, err := gitignore.ReadPatterns(fs, nil)
	if err != nil {
		return nil, err
	}
	m.patterns = append(m.patterns, gitPatterns...)

	lines, err := readIgnoreLines(fs, IgnoreFilename)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, line := range lines {
		m.patterns = append(m.patterns, gitignore.ParsePattern(line, nil))
	}
	return m, nil
}

// Match reports whether path, inside the matcher's root, is excluded.
// Later patterns override earlier ones, so "!keep.pdf" re-includes a file.
func (m *IgnoreMatcher) Match(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))

	excluded := false
	for _, p := range m.patterns {
		switch p.Match(parts, isDir) {
		case gitignore.Exclude:
			excluded = true
		case gitignore.Include:
			excluded = false
		}
	}
	return excluded
}

func readIgnoreLines(fs billy.Filesystem, name string) ([]string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
