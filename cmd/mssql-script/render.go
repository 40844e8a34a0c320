package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"mssql-script/internal/script"
)

func printJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func renderTables(w io.Writer, results script.QueryResults) {
	for batchIdx, batch := range results {
		for setIdx, set := range batch {
			if len(results) > 1 || len(batch) > 1 {
				fmt.Fprintf(w, "=> Batch %d, result set %d:\n\n", batchIdx, setIdx)
			}
			renderResultSet(w, set)
			fmt.Fprintln(w, "")
		}
		if len(batch) == 0 {
			fmt.Fprintf(w, "=> Batch %d: no result sets\n\n", batchIdx)
		}
	}
}

func renderResultSet(w io.Writer, set script.ResultSet) {
	if len(set) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	// Rows are dict-shaped in table format; header order is the sorted
	// column names of the first row.
	first, ok := set[0].(map[string]any)
	if !ok {
		for _, row := range set {
			fmt.Fprintf(w, "%v\n", row)
		}
		return
	}

	cols := make([]string, 0, len(first))
	for col := range first {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(cols)
	for _, row := range set {
		values, ok := row.(map[string]any)
		if !ok {
			continue
		}
		data := make([]string, 0, len(cols))
		for _, col := range cols {
			data = append(data, fmt.Sprintf("%v", values[col]))
		}
		table.Append(data)
	}

	table.Render()
}
