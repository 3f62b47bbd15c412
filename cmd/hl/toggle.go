package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/4thel00z/highlights/internal"
	"github.com/spf13/cobra"
)

func NewToggleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <file.pdf> <page> <query>",
		Short: "Highlight a query on a page, or remove its highlight",
		Long: `Toggle the highlight of every occurrence of the query on one page.
When the occurrences are already highlighted the highlights are removed,
otherwise one highlight per occurrence is added in the chosen color.
Pages are numbered from 1.`,
		Args: cobra.ExactArgs(3),
		RunE: makeToggleRunner(a),
	}

	cmd.Flags().StringP("color", "c", "", "Color name or #rrggbb (default from config)")
	cmd.Flags().Bool("no-color", false, "Only remove highlights, never add")
	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	return cmd
}

func makeToggleRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path, query := args[0], args[2]
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("page %q is not a number", args[1])
		}

		e, err := a.load(cmd)
		if err != nil {
			return err
		}

		color, err := toggleColor(cmd, e)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		start := time.Now()
		var res internal.ToggleResult
		err = internal.WithSession(ctx, e.engine, path, e.logger, func(s *internal.Session) error {
			entry, err := e.journal.Load(path)
			if err != nil {
				return err
			}
			s.Restore(entry)

			res = internal.NewHighlightService(s, e.settings, e.logger).Toggle(ctx, internal.ToggleRequest{
				Page: page, Query: query, Color: color,
			})
			if res.Outcome == internal.OutcomeAdded || res.Outcome == internal.OutcomeRemoved {
				return e.journal.Store(path, s.Snapshot())
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("toggle %s: %w", path, err)
		}
		e.metrics.ObserveToggle(res, time.Since(start))
		e.flushMetrics()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := outputToggleJSON(cmd, res); err != nil {
				return err
			}
		} else {
			printToggle(cmd, res)
		}
		return res.Err
	}
}

func toggleColor(cmd *cobra.Command, e *env) (*internal.Color, error) {
	if none, _ := cmd.Flags().GetBool("no-color"); none {
		return nil, nil
	}
	name, _ := cmd.Flags().GetString("color")
	if name == "" {
		name = e.cfg.DefaultColor
	}
	if name == "" {
		return nil, nil
	}
	c, err := e.palette.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func printToggle(cmd *cobra.Command, res internal.ToggleResult) {
	out := cmd.OutOrStdout()
	switch res.Outcome {
	case internal.OutcomeAdded:
		fmt.Fprintf(out, "added %d highlight(s) for %q on page %d (ids %s)\n",
			len(res.Annotations), res.Query, res.Page, joinIDs(res.Annotations))
	case internal.OutcomeRemoved:
		fmt.Fprintf(out, "removed %d highlight(s) for %q on page %d (ids %s)\n",
			len(res.Annotations), res.Query, res.Page, joinIDs(res.Annotations))
	case internal.OutcomeNoColorSelected:
		fmt.Fprintf(out, "%q is not highlighted on page %d; choose a color to add one\n", res.Query, res.Page)
	}
}

func outputToggleJSON(cmd *cobra.Command, res internal.ToggleResult) error {
	ids := make([]int, 0, len(res.Annotations))
	for _, id := range res.Annotations {
		ids = append(ids, int(id))
	}
	data := map[string]any{
		"outcome":     res.Outcome,
		"page":        res.Page,
		"query":       res.Query,
		"annotations": ids,
	}
	if res.Err != nil {
		data["error"] = res.Err.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func joinIDs(ids []internal.AnnotationID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}
