package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const (
	tempSuffix     = ".tmp"
	maxHistory     = 20
	defaultRetries = 1
)

// Change records one applied toggle so it can be undone and redone.
type Change struct {
	Page    int          `yaml:"page"`
	Query   string       `yaml:"query"`
	Outcome Outcome      `yaml:"outcome"`
	Added   []Annotation `yaml:"added,omitempty"`
	Removed []Annotation `yaml:"removed,omitempty"`
}

// Session owns at most one open document. Every mutation is followed by a
// save to disk and a reload before it is reported as successful.
type Session struct {
	mu      sync.Mutex
	engine  Engine
	logger  *zap.Logger
	retries int

	path    string
	doc     Document
	known   map[int]map[AnnotationID]struct{}
	history []Change
	redo    []Change
}

func NewSession(engine Engine, logger *zap.Logger) *Session {
	return &Session{
		engine:  engine,
		logger:  orNop(logger),
		retries: defaultRetries,
		known:   make(map[int]map[AnnotationID]struct{}),
	}
}

// OpenSession creates a session with path already open.
func OpenSession(ctx context.Context, engine Engine, path string, logger *zap.Logger) (*Session, error) {
	s := NewSession(engine, logger)
	if err := s.Open(ctx, path); err != nil {
		return nil, err
	}
	return s, nil
}

// WithSession opens path, runs fn and always closes the session.
func WithSession(ctx context.Context, engine Engine, path string, logger *zap.Logger, fn func(*Session) error) (err error) {
	s, err := OpenSession(ctx, engine, path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close session: %w", cerr))
		}
	}()
	return fn(s)
}

// Open loads path, closing any document opened before.
func (s *Session) Open(ctx context.Context, path string) error {
	doc, err := s.engine.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil {
		if err := s.doc.Close(); err != nil {
			s.logger.Warn("close previous document", zap.String("path", s.path), zap.Error(err))
		}
	}

	s.path = path
	s.doc = doc
	s.known = make(map[int]map[AnnotationID]struct{})
	s.history = nil
	s.redo = nil
	s.logger.Debug("document opened", zap.String("path", path), zap.Int("pages", doc.PageCount()))
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil
	}
	err := s.doc.Close()
	s.doc = nil
	s.path = ""
	s.known = make(map[int]map[AnnotationID]struct{})
	s.history = nil
	s.redo = nil
	return err
}

func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil
}

// Document returns the current handle. The handle is replaced after every
// mutation, so callers must not keep it across Mutate calls.
func (s *Session) Document() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	return s.doc, nil
}

// Mutate applies fn to the open document, then saves and reloads it.
// If fn or the save fails, the document is reloaded from disk to drop the
// unsaved changes. Whenever a reload fails the previous handle is kept.
func (s *Session) Mutate(ctx context.Context, fn func(Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNoDocument
	}

	if err := fn(s.doc); err != nil {
		s.discardLocked(ctx)
		return err
	}

	if err := s.saveLocked(s.path); err != nil {
		s.discardLocked(ctx)
		return err
	}
	return s.reloadLocked(ctx, s.path)
}

// Persist saves the open document to its own path and reloads it.
func (s *Session) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNoDocument
	}
	return s.persistLocked(ctx)
}

// SaveAs writes the open document to path and continues the session there.
func (s *Session) SaveAs(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return ErrNoDocument
	}
	if err := s.saveLocked(path); err != nil {
		return err
	}
	if err := s.reloadLocked(ctx, path); err != nil {
		return err
	}
	s.path = path
	return nil
}

func (s *Session) persistLocked(ctx context.Context) error {
	if err := s.saveLocked(s.path); err != nil {
		return err
	}
	return s.reloadLocked(ctx, s.path)
}

func (s *Session) saveLocked(path string) error {
	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err = saveAtomic(s.doc, path); err == nil {
			return nil
		}
		s.logger.Warn("save failed",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	s.logger.Error("giving up on save", zap.String("path", path), zap.Error(err))
	return fmt.Errorf("save %s: %w: %w", path, ErrPersistenceFailure, err)
}

func (s *Session) reloadLocked(ctx context.Context, path string) error {
	doc, err := s.engine.Open(ctx, path)
	if err != nil {
		s.logger.Error("reload failed, keeping previous handle", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("reload %s: %w: %w", path, ErrPersistenceFailure, err)
	}
	if err := s.doc.Close(); err != nil {
		s.logger.Warn("close stale handle", zap.Error(err))
	}
	s.doc = doc
	return nil
}

func (s *Session) discardLocked(ctx context.Context) {
	if err := s.reloadLocked(ctx, s.path); err != nil {
		s.logger.Warn("could not discard unsaved changes", zap.Error(err))
	}
}

// saveAtomic writes doc next to path and renames it into place.
func saveAtomic(doc Document, path string) error {
	tmp := path + tempSuffix
	if err := doc.Save(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Track adds ids to the annotation cache of page.
func (s *Session) Track(page int, ids ...AnnotationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.known[page]
	if !ok {
		set = make(map[AnnotationID]struct{})
		s.known[page] = set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

func (s *Session) Forget(page int, ids ...AnnotationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.known[page]
	for _, id := range ids {
		delete(set, id)
	}
	if len(set) == 0 {
		delete(s.known, page)
	}
}

// KnownAnnotationIDs lists the ids this session created on page. The list is
// a cache; the document is authoritative.
func (s *Session) KnownAnnotationIDs(page int) []AnnotationID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]AnnotationID, 0, len(s.known[page]))
	for id := range s.known[page] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// record appends a new toggle to the history. Whatever was undone before
// can no longer be redone.
func (s *Session) record(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = trimHistory(append(s.history, c))
	s.redo = nil
}

func (s *Session) popChange() (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := popLast(&s.history)
	return c, ok
}

// pushBack returns a change to the history without touching the redo list.
func (s *Session) pushBack(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = trimHistory(append(s.history, c))
}

func (s *Session) popRedo() (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := popLast(&s.redo)
	return c, ok
}

func (s *Session) pushRedo(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redo = trimHistory(append(s.redo, c))
}

func popLast(changes *[]Change) (Change, bool) {
	n := len(*changes)
	if n == 0 {
		return Change{}, false
	}
	c := (*changes)[n-1]
	*changes = (*changes)[:n-1]
	return c, true
}

func trimHistory(changes []Change) []Change {
	if len(changes) > maxHistory {
		changes = changes[len(changes)-maxHistory:]
	}
	return changes
}

// History returns the undoable changes, oldest first.
func (s *Session) History() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.history...)
}

// HistoryLen is the number of changes that can be undone.
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// RedoLen is the number of undone changes that can be redone.
func (s *Session) RedoLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}

// Snapshot returns the undo and redo lists for the journal.
func (s *Session) Snapshot() JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return JournalEntry{
		History: append([]Change(nil), s.history...),
		Redo:    append([]Change(nil), s.redo...),
	}
}

// Restore replaces the undo and redo lists, keeping the newest entries.
func (s *Session) Restore(e JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = trimHistory(append([]Change(nil), e.History...))
	s.redo = trimHistory(append([]Change(nil), e.Redo...))
}
