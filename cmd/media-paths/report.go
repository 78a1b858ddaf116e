package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
)

func printTableResult(w io.Writer, res *tableResult) {
	mode := "applied"
	if res.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "\n%s (%s)\n", res.Table, mode)
	fmt.Fprintf(w, "   entities:  %s\n", humanize.Comma(int64(res.Report.Entities)))
	fmt.Fprintf(w, "   updated:   %s\n", humanize.Comma(int64(res.Updated)))
	if res.Missing > 0 {
		fmt.Fprintf(w, "   vanished:  %s\n", humanize.Comma(int64(res.Missing)))
	}
	fmt.Fprintf(w, "   invalid:   %s\n", humanize.Comma(int64(res.Report.Invalid)))
	fmt.Fprintf(w, "   partial:   %s\n", humanize.Comma(int64(res.Report.Partial)))

	for _, name := range res.Report.SlotNames() {
		c := res.Report.Slots[name]
		fmt.Fprintf(w, "   - %s: %s assigned, %s unassigned, %s by category (pool of %s)\n",
			name,
			humanize.Comma(int64(c.Assigned)),
			humanize.Comma(int64(c.Unassigned)),
			humanize.Comma(int64(c.CategoryMatched)),
			humanize.Comma(int64(res.PoolSizes[name])))
	}

	if res.Coverage == nil {
		return
	}
	columns := make([]string, 0, len(res.Coverage.NonNull))
	for c := range res.Coverage.NonNull {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	fmt.Fprintf(w, "   coverage of %s rows:\n", humanize.Comma(res.Coverage.Total))
	for _, c := range columns {
		fmt.Fprintf(w, "   - with %s: %s\n", c, humanize.Comma(res.Coverage.NonNull[c]))
	}
}
