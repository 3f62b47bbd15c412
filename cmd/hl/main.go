package main

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/highlights/internal"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	if tryExternalCommand(ctx) {
		return
	}

	rootCmd := NewRootCmd(version, newApp())
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "hl %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	resolver *internal.ScopeResolver
	// engine overrides the PDF engine, for tests
	engine internal.Engine
}

func newApp() *app {
	return &app{resolver: internal.NewScopeResolver()}
}

// env is what a command needs once its scope's config is loaded.
type env struct {
	scope    internal.Scope
	cfg      *internal.Config
	settings internal.Settings
	palette  internal.Palette
	logger   *zap.Logger
	engine   internal.Engine
	journal  *internal.Journal
	metrics  *internal.Metrics
}

// flushMetrics writes the command's metrics when metrics.textfile is set.
func (e *env) flushMetrics() {
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		e.logger.Warn("metrics not written", zap.String("path", e.cfg.Metrics.Textfile), zap.Error(err))
	}
}

func (a *app) load(cmd *cobra.Command) (*env, error) {
	scopeHint, _ := cmd.Flags().GetString("scope")
	scope := a.resolver.Resolve(scopeHint)

	cfg, err := internal.LoadConfig(scope)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := internal.NewLogger(cfg.Log.Env, level)
	if err != nil {
		return nil, err
	}

	palette, err := cfg.Palette()
	if err != nil {
		return nil, err
	}

	settings := cfg.Settings()
	if cmd.Flags().Changed("case-sensitive") {
		settings.CaseSensitive, _ = cmd.Flags().GetBool("case-sensitive")
	}

	engine := a.engine
	if engine == nil {
		engine = internal.NewPDFEngine(logger)
	}

	cmd.SetContext(internal.ContextWithLogger(cmd.Context(), logger))
	return &env{
		scope:    scope,
		cfg:      cfg,
		settings: settings,
		palette:  palette,
		logger:   logger,
		engine:   engine,
		journal:  internal.NewJournal(scope),
		metrics:  internal.NewMetrics(),
	}, nil
}
