// Package ui renders command output for both terminals and pipes.
//
// When stdout is a TTY, output is styled with lipgloss; when piped, the same
// layout is emitted as plain text so downstream tools can parse it.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/audio-forge-rs/find-all-bitwig/internal/catalog"
	"github.com/audio-forge-rs/find-all-bitwig/internal/indexer"
	"github.com/audio-forge-rs/find-all-bitwig/internal/search"
)

// Renderer writes human-readable command output.
type Renderer struct {
	w      io.Writer
	styled bool
	styles Styles
}

// NewRenderer builds a Renderer for w. Styling turns on only when w is a
// terminal.
func NewRenderer(w io.Writer) *Renderer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{w: w, styled: styled, styles: DefaultStyles()}
}

// JSON writes v as indented JSON regardless of terminal state.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results renders a ranked result page as a table.
func (r *Renderer) Results(res *search.Results, offset int) {
	if len(res.Items) == 0 {
		fmt.Fprintln(r.w, "No matches.")
		return
	}

	rows := make([][]string, 0, len(res.Items))
	for i, item := range res.Items {
		device := item.ParentDevice
		if device == "" {
			device = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", offset+i+1),
			item.Name,
			string(item.ContentType),
			device,
			item.PackageName,
			fmt.Sprintf("%.3f", item.Relevance),
		})
	}
	r.table([]string{"#", "NAME", "TYPE", "DEVICE", "PACKAGE", "SCORE"}, rows)

	shown := offset + len(res.Items)
	fmt.Fprintf(r.w, "\n%s\n", r.dim(fmt.Sprintf("Showing %d-%d of %d matches", offset+1, shown, res.Total)))
}

// Paths renders result file paths only, one per line.
func (r *Renderer) Paths(res *search.Results) {
	for _, item := range res.Items {
		fmt.Fprintln(r.w, item.FilePath)
	}
}

// Suggestions renders autocomplete suggestions.
func (r *Renderer) Suggestions(suggestions []catalog.Suggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(r.w, "No suggestions.")
		return
	}
	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{s.Suggestion, string(s.ContentType), fmt.Sprintf("%d", s.MatchCount)})
	}
	r.table([]string{"SUGGESTION", "TYPE", "MATCHES"}, rows)
}

// Summary renders an indexing run summary.
func (r *Renderer) Summary(s *indexer.Summary) {
	fmt.Fprintf(r.w, "Packages:   %d\n", s.Packages)
	fmt.Fprintf(r.w, "Inserted:   %d\n", s.Inserted)
	fmt.Fprintf(r.w, "Updated:    %d\n", s.Updated)
	fmt.Fprintf(r.w, "Skipped:    %d\n", s.Skipped)
	fmt.Fprintf(r.w, "Failed:     %d\n", s.Failed)
	fmt.Fprintf(r.w, "Duration:   %s\n", s.Duration.Round(1e6))
	if s.Duplicates > 0 {
		fmt.Fprintln(r.w, r.warn(fmt.Sprintf("Duplicates: %d groups of identical files", s.Duplicates)))
	}
	for _, f := range s.Failures {
		fmt.Fprintln(r.w, r.err(fmt.Sprintf("  failed: %s: %s", f.Path, f.Err)))
	}
}

// Stats renders catalog statistics.
func (r *Renderer) Stats(st *catalog.Stats) {
	fmt.Fprintf(r.w, "Packages:     %d\n", st.Packages)
	fmt.Fprintf(r.w, "Content:      %d\n", st.Content)
	fmt.Fprintf(r.w, "Collections:  %d\n", st.Collections)
	fmt.Fprintf(r.w, "Usage events: %d\n", st.UsageEvents)
	if len(st.ByType) > 0 {
		fmt.Fprintln(r.w)
		for _, t := range catalog.ContentTypes {
			if n, ok := st.ByType[t]; ok {
				fmt.Fprintf(r.w, "  %-12s %d\n", t, n)
			}
		}
	}
}

// Collections renders the collection list.
func (r *Renderer) Collections(cols []catalog.Collection) {
	if len(cols) == 0 {
		fmt.Fprintln(r.w, "No collections.")
		return
	}
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		filter := "-"
		if c.Filter != nil {
			if encoded, err := c.Filter.Encode(); err == nil {
				filter = encoded
			}
		}
		rows = append(rows, []string{c.Name, string(c.Kind), filter})
	}
	r.table([]string{"NAME", "KIND", "FILTER"}, rows)
}

// table writes an aligned column layout with a styled header row.
func (r *Renderer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(pad(h, widths[i]))
		if i < len(headers)-1 {
			sb.WriteString("  ")
		}
	}
	if r.styled {
		fmt.Fprintln(r.w, r.styles.Header.Render(sb.String()))
	} else {
		fmt.Fprintln(r.w, sb.String())
	}

	for _, row := range rows {
		var rb strings.Builder
		for i, cell := range row {
			rb.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				rb.WriteString("  ")
			}
		}
		fmt.Fprintln(r.w, rb.String())
	}
}

func (r *Renderer) dim(s string) string {
	if r.styled {
		return r.styles.Dim.Render(s)
	}
	return s
}

func (r *Renderer) warn(s string) string {
	if r.styled {
		return r.styles.Warning.Render(s)
	}
	return s
}

func (r *Renderer) err(s string) string {
	if r.styled {
		return r.styles.Error.Render(s)
	}
	return s
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
