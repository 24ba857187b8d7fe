package render

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/rbinspect/rbinspect/model"
)

type cdata struct {
	Text string `xml:",cdata"`
}

type xmlRecycleBin struct {
	XMLName     xml.Name    `xml:"recyclebin"`
	Format      string      `xml:"format,attr"`
	Version     string      `xml:"version,attr,omitempty"`
	EverExisted *uint32     `xml:"ever_existed,attr,omitempty"`
	OSGuess     string      `xml:"os_guess,attr,omitempty"`
	Filename    cdata       `xml:"filename"`
	Records     []xmlRecord `xml:"record"`
}

type xmlRecord struct {
	Index string `xml:"index,attr"`
	Time  string `xml:"time,attr"`
	Gone  string `xml:"gone,attr"`
	Size  string `xml:"size,attr"`
	Path  cdata  `xml:"path"`
}

func goneXML(p model.Presence) string {
	switch p {
	case model.PresenceGone:
		return "true"
	case model.PresenceStillOnDisk:
		return "false"
	}
	return "unknown"
}

// versionValue is the structural version as a plain number, empty when
// unknown.
func (r *Report) versionValue() string {
	m := r.Meta
	if m.Kind == model.ArtifactKindLegacyIndex {
		return strconv.FormatUint(uint64(m.HeaderVersion), 10)
	}
	if m.DetectedVersion == nil || m.VersionInconsistent {
		return ""
	}
	return strconv.FormatInt(*m.DetectedVersion, 10)
}

func (r *Report) writeXML(w io.Writer) error {
	doc := xmlRecycleBin{
		Format:      r.Meta.Kind.String(),
		Version:     r.versionValue(),
		EverExisted: r.Meta.TotalEverDeleted,
		OSGuess:     r.Guess.Key(),
		Filename:    cdata{Text: r.Meta.SourcePath},
	}

	for _, row := range r.Rows {
		rec := row.Record
		deleted, _ := r.deletedAt(rec, time.RFC3339)
		size := "-1"
		if rec.RecordedSize != nil {
			size = strconv.FormatUint(*rec.RecordedSize, 10)
		}
		path := ""
		if row.PathErr == nil {
			path = row.Path
		}
		doc.Records = append(doc.Records, xmlRecord{
			Index: rec.Index.String(),
			Time:  deleted,
			Gone:  goneXML(rec.Presence),
			Size:  size,
			Path:  cdata{Text: path},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
