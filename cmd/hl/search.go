package main

import (
	"context"
	"fmt"
	"time"

	"github.com/4thel00z/highlights/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <file.pdf> <query> | search --dir <dir> <query>",
		Short: "Search a PDF or a folder of PDFs",
		Long: `Search every page for the query and report the matches per page, with
the highlight color when the matches are already highlighted.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: makeSearchRunner(a),
	}

	cmd.Flags().String("dir", "", "Search every PDF below this directory")
	cmd.Flags().StringP("format", "f", "text", "Output format (text|json|markdown)")
	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	cmd.Flags().Int("workers", 0, "Files searched in parallel (default from config)")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir != "" && len(args) != 1 {
			return fmt.Errorf("--dir takes exactly one query argument")
		}
		if dir == "" && len(args) != 2 {
			return fmt.Errorf("expected <file.pdf> <query>")
		}

		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		e, err := a.load(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		var rep internal.Report
		if dir != "" {
			workers, _ := cmd.Flags().GetInt("workers")
			if workers < 1 {
				workers = e.cfg.Workers
			}
			rep, err = searchDir(cmd.Context(), e, dir, args[0], workers)
		} else {
			rep, err = searchFile(cmd.Context(), e, args[0], args[1])
		}
		e.metrics.ObserveSearch(rep.Files, err, time.Since(start))
		e.flushMetrics()
		if err != nil {
			return err
		}

		return internal.WriteReport(cmd.OutOrStdout(), format, rep, e.palette)
	}
}

func outputFormat(cmd *cobra.Command) (internal.Format, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return internal.FormatJSON, nil
	}
	name, _ := cmd.Flags().GetString("format")
	return internal.ParseFormat(name)
}

func searchFile(ctx context.Context, e *env, path, query string) (internal.Report, error) {
	rep := internal.Report{Query: query}
	err := internal.WithSession(ctx, e.engine, path, e.logger, func(s *internal.Session) error {
		results, err := internal.NewSearchService(s, e.settings, e.logger).Search(ctx, query)
		if err != nil {
			return err
		}
		rep.Files = []internal.FileResult{{Path: path, Results: results}}
		return nil
	})
	if err != nil {
		return internal.Report{}, fmt.Errorf("search %s: %w", path, err)
	}
	return rep, nil
}

func searchDir(ctx context.Context, e *env, dir, query string, workers int) (internal.Report, error) {
	files, err := internal.NewDirSearcher(e.engine, e.settings, workers, e.logger).Search(ctx, dir, query)
	if err != nil {
		return internal.Report{}, fmt.Errorf("search %s: %w", dir, err)
	}
	return internal.Report{Query: query, Files: files}, nil
}

