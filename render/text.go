package render

// This file contains the delimited text, CSV and table renderers.

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

func (r *Report) preamble() []string {
	lines := []string{
		fmt.Sprintf("Recycle bin path: '%s'", r.Meta.SourcePath),
		fmt.Sprintf("Version: %s", r.versionText()),
	}
	if r.Meta.TotalEverDeleted != nil {
		lines = append(lines, fmt.Sprintf("Total entries ever existed: %d", *r.Meta.TotalEverDeleted))
	}
	if r.Guess.Known() {
		lines = append(lines, fmt.Sprintf("OS Guess: %s", r.Guess))
	} else {
		lines = append(lines, "OS detection failed")
	}
	name, offset := r.zone()
	lines = append(lines, fmt.Sprintf("Time zone: %s [%s]", name, offset))
	return lines
}

func (r *Report) writeText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	delim := r.Opts.FieldDelimiter()

	if !r.Opts.NoHeading {
		for _, line := range r.preamble() {
			fmt.Fprintln(bw, line)
		}
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, strings.Join(Columns, delim))
	}

	for _, row := range r.Rows {
		fmt.Fprintln(bw, strings.Join(r.cells(row), delim))
	}
	return bw.Flush()
}

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(r.cells(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Report) writeTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetCaption(true, strings.Join(r.preamble(), "; "))

	for _, row := range r.Rows {
		table.Append(r.cells(row))
	}
	table.Render()
	return nil
}
