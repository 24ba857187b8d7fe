package render

// This file contains the error summary printed after the records.

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/rbinspect/rbinspect/model"
)

// ErrorRows lists every ledger entry followed by every record error.
func ErrorRows(meta *model.RunMetadata) [][]string {
	var rows [][]string
	for _, e := range meta.Errors.Entries() {
		rows = append(rows, []string{e.Key.String(), e.Err.Error()})
	}
	for _, rec := range meta.Records {
		if rec.LocalError != nil {
			rows = append(rows, []string{"record " + rec.Index.String(), rec.LocalError.Error()})
		}
	}
	return rows
}

// WriteErrors prints a table of all problems found in meta. Nothing is
// written when the run is clean.
func WriteErrors(w io.Writer, meta *model.RunMetadata) {
	rows := ErrorRows(meta)
	if len(rows) == 0 {
		return
	}

	fmt.Fprintln(w, "Error occurred in following record(s):")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Entry", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
