// Package render writes a decoded recycle bin run in one of the supported
// output formats.
package render

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rbinspect/rbinspect/config"
	"github.com/rbinspect/rbinspect/model"
	"github.com/rbinspect/rbinspect/osguess"
	"github.com/rbinspect/rbinspect/pathconv"
)

// Placeholder is printed in text output for values that cannot be shown.
const Placeholder = "???"

// Columns are the record columns of tabular output.
var Columns = []string{"Index", "Deleted Time", "Gone?", "Size", "Path"}

const textTimeLayout = "2006-01-02 15:04:05"

// Row is a record with its path already converted to text.
type Row struct {
	Record *model.Record
	Path   string
	// Set when the raw path bytes could not be converted
	PathErr error
}

// Report is everything a renderer needs for one run.
type Report struct {
	Meta     *model.RunMetadata
	Guess    osguess.Guess
	Opts     config.Options
	Rows     []Row
	Location *time.Location
}

// NewReport converts every record path and guesses the OS. Conversion
// failures are attached to their record.
func NewReport(meta *model.RunMetadata, opts config.Options) *Report {
	r := &Report{
		Meta:     meta,
		Guess:    osguess.For(meta),
		Opts:     opts,
		Location: time.UTC,
	}
	if opts.LocalTime {
		r.Location = time.Local
	}

	for _, rec := range meta.Records {
		path, err := convertPath(rec, opts.Codepage)
		if err != nil {
			rec.AttachError(fmt.Errorf("record %s path: %w", rec.Index, err))
		}
		r.Rows = append(r.Rows, Row{Record: rec, Path: path, PathErr: err})
	}
	return r
}

func convertPath(rec *model.Record, codepage string) (string, error) {
	switch {
	case codepage != "" && rec.RawLegacyPath != nil:
		return pathconv.Convert(rec.RawLegacyPath, pathconv.Legacy, codepage)
	case rec.RawUnicodePath != nil:
		return pathconv.Convert(rec.RawUnicodePath, pathconv.Unicode, "")
	}
	return pathconv.Convert(rec.RawLegacyPath, pathconv.Legacy, "")
}

// Write renders the report in the configured format.
func (r *Report) Write(w io.Writer) error {
	switch r.Opts.Format {
	case config.FormatText, config.FormatTSV, "":
		return r.writeText(w)
	case config.FormatCSV:
		return r.writeCSV(w)
	case config.FormatTable:
		return r.writeTable(w)
	case config.FormatXML:
		return r.writeXML(w)
	case config.FormatJSON:
		return r.writeJSON(w)
	}
	return fmt.Errorf("%w: unknown format %q", config.ErrInvalidOption, r.Opts.Format)
}

// versionText describes the structural version for the preamble.
func (r *Report) versionText() string {
	m := r.Meta
	if m.Kind == model.ArtifactKindLegacyIndex {
		return strconv.FormatUint(uint64(m.HeaderVersion), 10)
	}
	switch {
	case m.VersionInconsistent:
		return Placeholder + " (version inconsistent)"
	case m.DetectedVersion == nil:
		return Placeholder + " (empty folder)"
	}
	return strconv.FormatInt(*m.DetectedVersion, 10)
}

func (r *Report) zone() (string, string) {
	now := time.Now().In(r.Location)
	return now.Format("MST"), now.Format("-0700")
}

// deletedAt returns the deletion time in the report's location. ok is
// false when the stored time is implausible.
func (r *Report) deletedAt(rec *model.Record, layout string) (string, bool) {
	if errors.Is(rec.LocalError, model.ErrBadTimestamp) {
		return "", false
	}
	return rec.DeletedAt.In(r.Location).Format(layout), true
}

func (r *Report) sizeText(rec *model.Record) string {
	if rec.RecordedSize == nil {
		return Placeholder
	}
	if r.Opts.HumanSize {
		return humanize.IBytes(*rec.RecordedSize)
	}
	return strconv.FormatUint(*rec.RecordedSize, 10)
}

func goneText(p model.Presence) string {
	switch p {
	case model.PresenceGone:
		return "TRUE"
	case model.PresenceStillOnDisk:
		return "FALSE"
	}
	return Placeholder
}

// cells returns the record columns as plain strings.
func (r *Report) cells(row Row) []string {
	deleted, ok := r.deletedAt(row.Record, textTimeLayout)
	if !ok {
		deleted = Placeholder
	}
	path := row.Path
	if row.PathErr != nil {
		path = Placeholder
	}
	return []string{
		row.Record.Index.String(),
		deleted,
		goneText(row.Record.Presence),
		r.sizeText(row.Record),
		path,
	}
}
