package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or markdown)", s)
}

// Report groups search results by file.
type Report struct {
	Query string
	Files []FileResult
}

type reportJSON struct {
	Query string     `json:"query"`
	Files []fileJSON `json:"files"`
}

type fileJSON struct {
	Path    string       `json:"path"`
	Error   string       `json:"error,omitempty"`
	Results []resultJSON `json:"results"`
}

type resultJSON struct {
	Page          int          `json:"page"`
	Matches       int          `json:"matches"`
	Highlighted   bool         `json:"highlighted"`
	Color         string       `json:"color,omitempty"`
	ColorName     string       `json:"color_name,omitempty"`
	AnnotationIDs []int        `json:"annotation_ids,omitempty"`
	Rects         [][4]float64 `json:"rects"`
	Context       string       `json:"context,omitempty"`
}

// WriteReport renders rep in the given format.
func WriteReport(w io.Writer, format Format, rep Report, palette Palette) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rep, palette)
	case FormatMarkdown:
		return WriteMarkdown(w, rep, palette)
	default:
		return WriteText(w, rep, palette)
	}
}

func WriteText(w io.Writer, rep Report, palette Palette) error {
	multi := len(rep.Files) > 1
	found := 0
	for _, f := range rep.Files {
		if f.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: error: %v\n", f.Path, f.Err); err != nil {
				return err
			}
			continue
		}
		for _, r := range f.Results {
			found++
			prefix := ""
			if multi {
				prefix = f.Path + ":"
			}
			if _, err := fmt.Fprintf(w, "%spage %d: %d match(es)  %s  %s\n",
				prefix, r.Page, r.MatchCount(), status(r, palette), r.Context); err != nil {
				return err
			}
		}
	}
	if found == 0 {
		_, err := fmt.Fprintf(w, "no matches for %q\n", rep.Query)
		return err
	}
	return nil
}

func WriteJSON(w io.Writer, rep Report, palette Palette) error {
	out := reportJSON{Query: rep.Query, Files: make([]fileJSON, 0, len(rep.Files))}
	for _, f := range rep.Files {
		fj := fileJSON{Path: f.Path, Results: make([]resultJSON, 0, len(f.Results))}
		if f.Err != nil {
			fj.Error = f.Err.Error()
		}
		for _, r := range f.Results {
			rj := resultJSON{
				Page:        r.Page,
				Matches:     r.MatchCount(),
				Highlighted: r.Highlighted(),
				Context:     r.Context,
			}
			if r.Color != nil {
				rj.Color = r.Color.Hex()
				rj.ColorName = palette.NameOf(*r.Color)
			}
			for _, id := range r.AnnotationIDs {
				rj.AnnotationIDs = append(rj.AnnotationIDs, int(id))
			}
			for _, rc := range r.Rects {
				rj.Rects = append(rj.Rects, [4]float64{rc.LLx, rc.LLy, rc.URx, rc.URy})
			}
			fj.Results = append(fj.Results, rj)
		}
		out.Files = append(out.Files, fj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func WriteMarkdown(w io.Writer, rep Report, palette Palette) error {
	md := markdown.NewMarkdown(w)
	md.H1(fmt.Sprintf("Search: %s", rep.Query))
	md.PlainText("")

	total := 0
	for _, f := range rep.Files {
		md.H2(f.Path)
		md.PlainText("")

		if f.Err != nil {
			md.Warningf("could not search this file: %v", f.Err)
			md.PlainText("")
			continue
		}
		if len(f.Results) == 0 {
			md.PlainText("No matches.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, 0, len(f.Results))
		for _, r := range f.Results {
			total += r.MatchCount()
			rows = append(rows, []string{
				strconv.Itoa(r.Page),
				strconv.Itoa(r.MatchCount()),
				status(r, palette),
				r.Context,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Matches", "Highlight", "Context"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	md.PlainTextf("Total matches: %d", total)
	return md.Build()
}

func status(r SearchResult, palette Palette) string {
	if !r.Highlighted() {
		return "not highlighted"
	}
	if r.Color == nil {
		return "highlighted"
	}
	return "highlighted (" + palette.NameOf(*r.Color) + ")"
}
