// Package osguess infers which Windows release wrote a recycle bin index
// from the structure of the decoded data.
package osguess

import (
	"github.com/rbinspect/rbinspect/model"
)

// Guess identifies a Windows release or range of releases.
type Guess uint8

const (
	Unknown Guess = iota
	Win95
	NT4
	Win98
	ME
	Win2000
	XP03
	Win2000To03
	VistaTo81
	Win10
)

// entry pairs a guess with its names. The table is indexed by Guess.
type entry struct {
	guess       Guess
	key         string
	description string
}

var table = [...]entry{
	{Unknown, "unknown", ""},
	{Win95, "win95", "Windows 95"},
	{NT4, "nt4", "Windows NT 4.0"},
	{Win98, "win98", "Windows 98"},
	{ME, "me", "Windows ME"},
	{Win2000, "win2000", "Windows 2000"},
	{XP03, "xp_2003", "Windows XP or 2003"},
	{Win2000To03, "win2000_2003", "Windows 2000, XP or 2003"},
	{VistaTo81, "vista_8.1", "Windows Vista - 8.1"},
	{Win10, "win10", "Windows 10 or above"},
}

func (g Guess) entry() entry {
	if int(g) >= len(table) {
		return table[Unknown]
	}
	return table[g]
}

// Key returns a stable machine readable name.
func (g Guess) Key() string {
	return g.entry().key
}

// String returns the human readable description, empty for Unknown.
func (g Guess) String() string {
	return g.entry().description
}

// Known reports whether a release could be inferred.
func (g Guess) Known() bool {
	return g.entry().guess != Unknown
}

// Legacy header version discriminants.
const (
	headerWin95 = 0
	headerNT4   = 2
	headerWin98 = 4
	headerME03  = 5
)

// Per-item sub-versions.
const (
	itemVista = 1
	itemWin10 = 2
)

// meRecordSize is the record size of INFO2 files without a Unicode path.
const meRecordSize = 280

// For returns the best guess for meta. It only reads meta and never fails.
func For(meta *model.RunMetadata) Guess {
	if meta == nil {
		return Unknown
	}

	switch meta.Kind {
	case model.ArtifactKindPerItemIndex:
		if meta.DetectedVersion == nil || meta.VersionInconsistent {
			return Unknown
		}
		switch *meta.DetectedVersion {
		case itemVista:
			// Releases in this range leave no reliable structural difference.
			return VistaTo81
		case itemWin10:
			return Win10
		}
		return Unknown

	case model.ArtifactKindLegacyIndex:
		switch meta.HeaderVersion {
		case headerWin95:
			return Win95
		case headerNT4:
			return NT4
		case headerWin98:
			return Win98
		case headerME03:
			if meta.RecordSize == meRecordSize {
				return ME
			}
			if len(meta.Records) == 0 {
				return Win2000To03
			}
			if meta.FillJunk {
				return Win2000
			}
			return XP03
		}
	}
	return Unknown
}
