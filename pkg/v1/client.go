package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/highlights/internal"
	"go.uber.org/zap"
)

// Client searches one open PDF at a time and toggles highlights in it.
// Every toggle is saved to disk before it returns. Undo and redo history
// live as long as the open document.
type Client struct {
	engine   internal.Engine
	session  *internal.Session
	settings internal.Settings
	palette  internal.Palette
	workers  int
	logger   *zap.Logger
}

// New creates a Client configured from the resolved scope's config.yaml
// and the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	scope := internal.NewScopeResolver().Resolve(cfg.scope)
	conf, err := internal.LoadConfig(scope)
	if err != nil {
		return nil, err
	}

	settings := conf.Settings()
	if cfg.threshold != nil {
		settings.Threshold = *cfg.threshold
	}
	if cfg.opacity != nil {
		settings.Opacity = *cfg.opacity
	}
	if cfg.caseSensitive != nil {
		settings.CaseSensitive = *cfg.caseSensitive
	}
	if err := internal.ValidateThreshold(settings.Threshold); err != nil {
		return nil, err
	}
	if settings.Opacity < 0 || settings.Opacity > 1 {
		return nil, fmt.Errorf("opacity %v outside [0,1]", settings.Opacity)
	}

	palette, err := conf.Palette()
	if err != nil {
		return nil, err
	}

	workers := cfg.workers
	if workers < 1 {
		workers = conf.Workers
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := internal.NewPDFEngine(logger)
	return &Client{
		engine:   engine,
		session:  internal.NewSession(engine, logger),
		settings: settings,
		palette:  palette,
		workers:  workers,
		logger:   logger,
	}, nil
}

// Open loads the PDF at path, closing the document opened before.
func (c *Client) Open(ctx context.Context, path string) error {
	return c.session.Open(ctx, path)
}

// Path returns the path of the open document, or "".
func (c *Client) Path() string {
	return c.session.Path()
}

// Search returns the pages of the open document containing query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	results, err := internal.NewSearchService(c.session, c.settings, c.logger).Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResults(results), nil
}

// SearchDir searches every PDF below root without touching the open
// document.
func (c *Client) SearchDir(ctx context.Context, root, query string) ([]FileResult, error) {
	files, err := internal.NewDirSearcher(c.engine, c.settings, c.workers, c.logger).Search(ctx, root, query)
	if err != nil {
		return nil, fmt.Errorf("search dir: %w", err)
	}

	out := make([]FileResult, 0, len(files))
	for _, f := range files {
		fr := FileResult{Path: f.Path, Results: fromResults(f.Results)}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		out = append(out, fr)
	}
	return out, nil
}

// ToggleHighlight removes the highlights over query on page, or adds one
// per occurrence in color when there are none. color is a palette name or
// "#rrggbb"; an empty color only allows removal.
func (c *Client) ToggleHighlight(ctx context.Context, page int, query, color string) (ToggleResult, error) {
	var col *internal.Color
	if color != "" {
		resolved, err := c.palette.Resolve(color)
		if err != nil {
			return ToggleResult{}, err
		}
		col = &resolved
	}

	res := internal.NewHighlightService(c.session, c.settings, c.logger).Toggle(ctx, internal.ToggleRequest{
		Page: page, Query: query, Color: col,
	})
	return ToggleResult{
		Outcome:     res.Outcome.String(),
		Page:        res.Page,
		Query:       res.Query,
		Annotations: fromIDs(res.Annotations),
	}, res.Err
}

// Undo reverts the most recent toggle on the open document.
func (c *Client) Undo(ctx context.Context) error {
	_, err := internal.NewHighlightService(c.session, c.settings, c.logger).Undo(ctx)
	return err
}

// Redo applies the most recently undone toggle again.
func (c *Client) Redo(ctx context.Context) error {
	_, err := internal.NewHighlightService(c.session, c.settings, c.logger).Redo(ctx)
	return err
}

// Close releases the open document.
func (c *Client) Close() error {
	return c.session.Close()
}
