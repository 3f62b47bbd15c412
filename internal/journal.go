package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const journalFilename = "journal.yaml"

// Journal keeps the undo and redo lists of documents between runs. Entries
// are keyed by absolute document path.
type Journal struct {
	path string
}

// JournalEntry holds what can be undone and redone on one document, oldest
// first.
type JournalEntry struct {
	History []Change `yaml:"history,omitempty"`
	Redo    []Change `yaml:"redo,omitempty"`
}

// UnmarshalYAML also accepts a bare list of changes, read as history.
func (e *JournalEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		*e = JournalEntry{}
		return n.Decode(&e.History)
	}
	type plain JournalEntry
	return n.Decode((*plain)(e))
}

func (e JournalEntry) empty() bool {
	return len(e.History) == 0 && len(e.Redo) == 0
}

type journalFile struct {
	Documents map[string]JournalEntry `yaml:"documents"`
}

func NewJournal(scope Scope) *Journal {
	return &Journal{path: filepath.Join(scope.Dir, journalFilename)}
}

func (j *Journal) Path() string {
	return j.path
}

// Load returns the recorded changes for doc.
func (j *Journal) Load(doc string) (JournalEntry, error) {
	f, err := j.read()
	if err != nil {
		return JournalEntry{}, err
	}
	key, err := filepath.Abs(doc)
	if err != nil {
		return JournalEntry{}, err
	}
	return f.Documents[key], nil
}

// Store replaces the changes recorded for doc. An empty entry removes the
// document from the journal.
func (j *Journal) Store(doc string, e JournalEntry) error {
	f, err := j.read()
	if err != nil {
		return err
	}
	key, err := filepath.Abs(doc)
	if err != nil {
		return err
	}

	if e.empty() {
		delete(f.Documents, key)
	} else {
		f.Documents[key] = JournalEntry{History: trimHistory(e.History), Redo: trimHistory(e.Redo)}
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	tmp := j.path + tempSuffix
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return os.Rename(tmp, j.path)
}

func (j *Journal) read() (*journalFile, error) {
	f := &journalFile{}
	data, err := os.ReadFile(j.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parse journal %s: %w", j.path, err)
		}
	}
	if f.Documents == nil {
		f.Documents = make(map[string]JournalEntry)
	}
	return f, nil
}
