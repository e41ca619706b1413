package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/agentfmt/agentfmt/internal/events"
)

// printStats renders the --stats summary for a single-file run: the number
// of events seen (labelled lines=), the per-kind event counts, and the
// number of Error events.
func printStats(w io.Writer, s fileStats) {
	printStatsTable(w, []fileStats{s})
}

// printStatsTable renders one row per file plus a totals row, grounded on
// cmd/vc's cost-summary table style (header, aligned columns, bold total).
func printStatsTable(w io.Writer, all []fileStats) {
	bold := color.New(color.Bold)
	total := fileStats{path: "total", kindCounts: map[events.Kind]int{}}

	fmt.Fprintln(w)
	bold.Fprintln(w, "event summary")
	for _, s := range all {
		total.errorCount += s.errorCount
		total.lines += s.lines
		for k, n := range s.kindCounts {
			total.kindCounts[k] += n
		}
		fmt.Fprintf(w, "  %-30s lines=%-6d %s\n", s.path, s.lines, renderKindCounts(s.kindCounts))
		if s.errorCount > 0 {
			color.New(color.FgRed).Fprintf(w, "    %d error event(s)\n", s.errorCount)
		}
	}
	if len(all) > 1 {
		bold.Fprintf(w, "  %-30s lines=%-6d %s\n", total.path, total.lines, renderKindCounts(total.kindCounts))
	}
}

func renderKindCounts(counts map[events.Kind]int) string {
	out := ""
	for _, k := range sortedKinds(counts) {
		out += fmt.Sprintf("%s=%d ", k, counts[k])
	}
	return out
}
