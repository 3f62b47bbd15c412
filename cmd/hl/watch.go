package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/4thel00z/highlights/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file.pdf> <query>",
		Short: "Re-run a search whenever a PDF changes",
		Long: `Search the file once, then watch it and print how the matches and
their highlight state change each time the file is written.`,
		Args: cobra.ExactArgs(2),
		RunE: makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		target, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		query := args[1]

		e, err := a.load(cmd)
		if err != nil {
			return err
		}

		render := func() (string, error) {
			rep, err := searchFile(cmd.Context(), e, target, query)
			if err != nil {
				return "", err
			}
			var buf bytes.Buffer
			if err := internal.WriteText(&buf, rep, e.palette); err != nil {
				return "", err
			}
			return buf.String(), nil
		}

		prev, err := render()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prev)

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		// Editors replace files by renaming, so watch the directory.
		if err := watcher.Add(filepath.Dir(target)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", target)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, target) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				next, err := render()
				if err != nil {
					e.logger.Warn("search after change failed", zap.String("path", target), zap.Error(err))
					fmt.Fprintf(cmd.ErrOrStderr(), "search: %v\n", err)
					continue
				}
				if d := reportDiff(prev, next); d != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s", time.Now().Format(time.TimeOnly), d)
				}
				prev = next
			}
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return true
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return true
	}

	return false
}

// reportDiff returns the changed lines between two text reports, prefixed
// with "+ " or "- ". Equal reports yield "".
func reportDiff(prev, next string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prev, next)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String()
}
