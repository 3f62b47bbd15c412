package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/highlights/internal"
	"github.com/spf13/cobra"
)

func NewListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list <file.pdf>",
		Aliases: []string{"ls"},
		Short:   "List the highlights of a PDF",
		Long:    `List every highlight annotation of the file, page by page.`,
		Args:    cobra.ExactArgs(1),
		RunE:    makeListRunner(a),
	}
	cmd.Flags().IntP("page", "p", 0, "Only list this page")
	return cmd
}

type listedHighlight struct {
	Page    int
	Annot   internal.Annotation
	ColorNm string
}

func makeListRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := args[0]
		only, _ := cmd.Flags().GetInt("page")

		e, err := a.load(cmd)
		if err != nil {
			return err
		}

		var listed []listedHighlight
		err = internal.WithSession(cmd.Context(), e.engine, path, e.logger, func(s *internal.Session) error {
			doc, err := s.Document()
			if err != nil {
				return err
			}
			first, last := 1, doc.PageCount()
			if only != 0 {
				first, last = only, only
			}
			for page := first; page <= last; page++ {
				annots, err := doc.PageAnnotations(page)
				if err != nil {
					return err
				}
				for _, an := range annots {
					if !an.IsHighlight() {
						continue
					}
					h := listedHighlight{Page: page, Annot: an}
					if an.Color != nil {
						h.ColorNm = e.palette.NameOf(*an.Color)
					}
					listed = append(listed, h)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("list %s: %w", path, err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return outputListJSON(cmd, listed)
		}

		if len(listed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No highlights.")
			return nil
		}
		for _, h := range listed {
			r := h.Annot.Rect
			color := h.ColorNm
			if color == "" {
				color = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d  #%s  %-8s  [%.1f %.1f %.1f %.1f]  %s\n",
				h.Page, h.Annot.ID, color, r.LLx, r.LLy, r.URx, r.URy, h.Annot.Subject)
		}
		return nil
	}
}

func outputListJSON(cmd *cobra.Command, listed []listedHighlight) error {
	data := make([]map[string]any, 0, len(listed))
	for _, h := range listed {
		r := h.Annot.Rect
		item := map[string]any{
			"page":    h.Page,
			"id":      int(h.Annot.ID),
			"rect":    []float64{r.LLx, r.LLy, r.URx, r.URy},
			"subject": h.Annot.Subject,
		}
		if h.Annot.Color != nil {
			item["color"] = h.Annot.Color.Hex()
			item["color_name"] = h.ColorNm
		}
		data = append(data, item)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
