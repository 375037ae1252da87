package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// layoutRows lists every laid out point of res with the width of its column
// as recorded by surface.
func layoutRows(res chart.RedrawResult, surface *record.Surface, views map[chart.Key]map[string]chart.Handle) [][]string {
	var rows [][]string
	for _, s := range res.Series {
		for _, p := range s.Points {
			if p.Invalid {
				continue
			}
			width := "-"
			if h, ok := views[p.Key][s.Name]; ok {
				if prim, ok := surface.Primitive(h); ok {
					width = formatFloat(prim.Geometry.Width)
				}
			}
			rows = append(rows, []string{
				s.Name,
				string(p.Key),
				formatFloat(p.X),
				formatFloat(p.Y),
				formatFloat(p.Base),
				formatFloat(p.Top),
				strconv.FormatFloat(p.Share*100, 'f', 1, 64) + "%",
				width,
			})
		}
	}
	return rows
}

// columnHandles indexes the column primitives of every series by key.
func columnHandles(group *chart.StackGroup) map[chart.Key]map[string]chart.Handle {
	out := make(map[chart.Key]map[string]chart.Handle)
	for _, m := range group.Members() {
		for _, view := range m.Views() {
			if out[view.Key] == nil {
				out[view.Key] = make(map[string]chart.Handle)
			}
			out[view.Key][m.Name()] = view.Visual
		}
	}
	return out
}

func printLayout(res chart.RedrawResult, surface *record.Surface, group *chart.StackGroup) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Series", "Key", "Category", "Value", "Base", "Top", "Share", "Width"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(layoutRows(res, surface, columnHandles(group))); err != nil {
		return err
	}
	return table.Render()
}

// totals sums the reconcile stats of every series.
func totals(res chart.RedrawResult) chart.ReconcileStats {
	var t chart.ReconcileStats
	for _, s := range res.Series {
		t.Created += s.Stats.Created
		t.Reused += s.Stats.Reused
		t.Removed += s.Stats.Removed
		t.Failed += s.Stats.Failed
	}
	return t
}

func printSummary(w io.Writer, res chart.RedrawResult, live int) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	t := totals(res)
	low, high := res.State.Extent()
	fmt.Fprintf(w, "created %s, reused %d, removed %s, failed %s; %d live primitives; extent [%s, %s]\n",
		green(t.Created), t.Reused, red(t.Removed), yellow(t.Failed), live, formatFloat(low), formatFloat(high))
	for _, err := range res.Errors() {
		fmt.Fprintln(w, yellow("warning:"), err)
	}
}

// appendFrame appends the instructions recorded since the last flush to the
// file at path.
func appendFrame(path string, surface *record.Surface) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed opening frame file: %w", err)
	}
	if err := surface.Flush().Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
