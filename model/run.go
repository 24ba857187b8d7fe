package model

import (
	"errors"
	"time"
)

// ArtifactKind identifies which recycle bin index format a run decodes.
type ArtifactKind uint8

const (
	// ArtifactKindLegacyIndex is the single INFO2 file used up to Windows 2003.
	ArtifactKindLegacyIndex ArtifactKind = iota
	// ArtifactKindPerItemIndex is the one-$I-file-per-item format used since Vista.
	ArtifactKindPerItemIndex
)

// String returns the short format name used in rendered output.
func (k ArtifactKind) String() string {
	switch k {
	case ArtifactKindLegacyIndex:
		return "file"
	case ArtifactKindPerItemIndex:
		return "dir"
	}
	return "unknown"
}

// RunMetadata is the result of one invocation: every decoded record plus
// the errors that could not be attached to a record.
type RunMetadata struct {
	// Kind of artifact, fixed for the lifetime of the run
	Kind ArtifactKind `json:"kind"`
	// Display path of the artifact file or directory
	SourcePath string `json:"source_path"`
	// Raw structural version: record size (legacy) or sub-version (per-item).
	// Nil when no usable data was found.
	DetectedVersion *int64 `json:"detected_version,omitempty"`
	// Set when per-item files in one directory disagree on their sub-version
	VersionInconsistent bool `json:"version_inconsistent,omitempty"`
	// Version discriminant from the legacy header (legacy only)
	HeaderVersion uint32 `json:"header_version,omitempty"`
	// Resolved legacy record size in bytes (legacy only)
	RecordSize uint32 `json:"record_size,omitempty"`
	// Counter of all items ever deleted (legacy only)
	TotalEverDeleted *uint32 `json:"total_ever_deleted,omitempty"`
	// Uninitialized filler bytes were seen after a legacy path terminator
	FillJunk bool `json:"fill_junk,omitempty"`
	// Decoded records in scan order
	Records []*Record `json:"records"`
	// Errors that invalidated a byte range or a whole file
	Errors Ledger `json:"-"`
}

// NewRunMetadata creates an empty aggregate for the given artifact.
func NewRunMetadata(kind ArtifactKind, sourcePath string) *RunMetadata {
	return &RunMetadata{
		Kind:       kind,
		SourcePath: sourcePath,
	}
}

// AppendRecord adds a structurally decodable record to the run.
func (m *RunMetadata) AppendRecord(r *Record) {
	m.Records = append(m.Records, r)
}

// ObserveVersion records a structural version signal. A second, different
// signal marks the run as inconsistent.
func (m *RunMetadata) ObserveVersion(v int64) {
	if m.DetectedVersion == nil {
		m.DetectedVersion = &v
		return
	}
	if *m.DetectedVersion != v {
		m.VersionInconsistent = true
	}
}

// HasErrors reports whether anything in the run is dubious: a ledger entry
// or a record carrying its own error.
func (m *RunMetadata) HasErrors() bool {
	if m.Errors.Len() > 0 {
		return true
	}
	for _, r := range m.Records {
		if r.LocalError != nil {
			return true
		}
	}
	return false
}

// Presence tells whether the deleted file still exists in the recycle bin.
type Presence uint8

const (
	PresenceUnknown Presence = iota
	PresenceStillOnDisk
	PresenceGone
)

func (p Presence) String() string {
	switch p {
	case PresenceStillOnDisk:
		return "still_on_disk"
	case PresenceGone:
		return "gone"
	}
	return "unknown"
}

// Index identifies a record: a number in the legacy format, the $I file
// name in the per-item format.
type Index struct {
	Number uint32 `json:"number,omitempty"`
	Token  string `json:"token,omitempty"`
}

// NumberIndex returns the index of a legacy record.
func NumberIndex(n uint32) Index {
	return Index{Number: n}
}

// TokenIndex returns the index of a per-item record.
func TokenIndex(token string) Index {
	return Index{Token: token}
}

// IsToken reports whether the index came from a file name.
func (i Index) IsToken() bool {
	return i.Token != ""
}

func (i Index) String() string {
	if i.IsToken() {
		return i.Token
	}
	return formatUint(uint64(i.Number))
}

// Record is one deleted item.
type Record struct {
	Index Index `json:"index"`
	// Deletion time, UTC, second precision
	DeletedAt time.Time `json:"deleted_at"`
	// Derived from the index contents, not from the live filesystem
	Presence Presence `json:"presence"`
	// Nil when the stored value is the overflow sentinel
	RecordedSize *uint64 `json:"recorded_size,omitempty"`
	// UTF-16LE path field as stored
	RawUnicodePath []byte `json:"-"`
	// Single-byte/DBCS 8.3 path field as stored (legacy only)
	RawLegacyPath []byte `json:"-"`
	// Field-level problem; the record is still usable
	LocalError error `json:"-"`
	// Artifact file this record was decoded from
	Source string `json:"source,omitempty"`
}

// AttachError adds a record-local error, keeping any earlier one.
func (r *Record) AttachError(err error) {
	if err == nil {
		return
	}
	if r.LocalError == nil {
		r.LocalError = err
		return
	}
	r.LocalError = errors.Join(r.LocalError, err)
}
