package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/rbinspect/rbinspect/model"
)

func goneJSON(p model.Presence) any {
	switch p {
	case model.PresenceGone:
		return true
	case model.PresenceStillOnDisk:
		return false
	}
	return nil
}

func (r *Report) writeJSON(w io.Writer) error {
	m := r.Meta

	doc := ordereddict.NewDict().
		Set("format", m.Kind.String())

	switch {
	case m.Kind == model.ArtifactKindLegacyIndex:
		doc.Set("version", m.HeaderVersion)
	case m.DetectedVersion != nil && !m.VersionInconsistent:
		doc.Set("version", *m.DetectedVersion)
	default:
		doc.Set("version", nil)
	}
	if m.TotalEverDeleted != nil {
		doc.Set("ever_existed", *m.TotalEverDeleted)
	}

	var guess any
	if r.Guess.Known() {
		guess = r.Guess.String()
	}
	doc.Set("os_guess", guess).
		Set("path", m.SourcePath)

	records := make([]*ordereddict.Dict, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := row.Record

		var index any = rec.Index.Number
		if rec.Index.IsToken() {
			index = rec.Index.Token
		}
		var deleted any
		if t, ok := r.deletedAt(rec, time.RFC3339); ok {
			deleted = t
		}
		var size any
		if rec.RecordedSize != nil {
			size = *rec.RecordedSize
		}
		var path any
		if row.PathErr == nil {
			path = row.Path
		}

		records = append(records, ordereddict.NewDict().
			Set("index", index).
			Set("time", deleted).
			Set("gone", goneJSON(rec.Presence)).
			Set("size", size).
			Set("path", path))
	}
	doc.Set("records", records)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
