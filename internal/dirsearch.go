package internal

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileResult holds the search results of one file of a folder search. Err is
// set when the file could not be searched.
type FileResult struct {
	Path    string
	Results []SearchResult
	Err     error
}

// DirSearcher searches every PDF below a directory.
type DirSearcher struct {
	engine   Engine
	settings Settings
	workers  int
	logger   *zap.Logger
}

func NewDirSearcher(engine Engine, settings Settings, workers int, logger *zap.Logger) *DirSearcher {
	if workers < 1 {
		workers = 1
	}
	return &DirSearcher{
		engine:   engine,
		settings: settings,
		workers:  workers,
		logger:   orNop(logger),
	}
}

// Search returns one entry per PDF below root, sorted by path. A file that
// fails to open is reported in its entry and does not stop the others.
func (d *DirSearcher) Search(ctx context.Context, root, query string) ([]FileResult, error) {
	paths, err := d.collect(root)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = d.searchFile(ctx, path, query)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *DirSearcher) searchFile(ctx context.Context, path, query string) FileResult {
	fr := FileResult{Path: path}
	fr.Err = WithSession(ctx, d.engine, path, d.logger, func(s *Session) error {
		res, err := NewSearchService(s, d.settings, d.logger).Search(ctx, query)
		fr.Results = res
		return err
	})
	if fr.Err != nil {
		d.logger.Warn("search file", zap.String("path", path), zap.Error(fr.Err))
	}
	return fr
}

func (d *DirSearcher) collect(root string) ([]string, error) {
	ignore, err := NewIgnoreMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("read ignore rules in %s: %w", root, err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && (strings.HasPrefix(entry.Name(), ".") || ignore.Match(path, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") && !ignore.Match(path, false) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}
