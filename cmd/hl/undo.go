package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/highlights/internal"
	"github.com/spf13/cobra"
)

func NewUndoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <file.pdf>",
		Short: "Revert the last toggle on a PDF",
		Long: `Revert the most recent toggle recorded for the file. A removed
highlight comes back; an added one is deleted again.`,
		Args: cobra.ExactArgs(1),
		RunE: makeUndoRunner(a),
	}
	return cmd
}

func makeUndoRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := args[0]
		e, err := a.load(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var change internal.Change
		err = internal.WithSession(ctx, e.engine, path, e.logger, func(s *internal.Session) error {
			entry, err := e.journal.Load(path)
			if err != nil {
				return err
			}
			s.Restore(entry)

			change, err = internal.NewHighlightService(s, e.settings, e.logger).Undo(ctx)
			if err != nil {
				return err
			}
			return e.journal.Store(path, s.Snapshot())
		})
		if err != nil {
			return fmt.Errorf("undo %s: %w", path, err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"undone": change.Outcome,
				"page":   change.Page,
				"query":  change.Query,
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "undid %s of %q on page %d\n", change.Outcome, change.Query, change.Page)
		return nil
	}
}
