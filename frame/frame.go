// Package frame splits recycle bin index files into a fixed header followed
// by records and reads little-endian fields out of them. Both index formats
// are built on it: the legacy INFO2 file with many fixed-size records and the
// per-item $I file with a single record.
package frame

import (
	"encoding/binary"
)

// Layout describes a header followed by records of RecordSize bytes.
type Layout struct {
	HeaderSize int
	RecordSize int
}

// Frame is one record slice. Start and End are absolute file offsets,
// End exclusive.
type Frame struct {
	Seq   int
	Start int
	End   int
	Data  []byte
}

// Span is a region of the file that could not be delimited into a record.
type Span struct {
	Start int
	End   int
}

// Body returns the bytes after the header, or nil when the buffer does not
// hold a complete header.
func (l Layout) Body(buf []byte) []byte {
	if len(buf) < l.HeaderSize {
		return nil
	}
	return buf[l.HeaderSize:]
}

// Frame returns the record with sequence number seq.
func (l Layout) Frame(buf []byte, seq int) (Frame, bool) {
	if l.RecordSize <= 0 || seq < 0 {
		return Frame{}, false
	}
	start := l.HeaderSize + seq*l.RecordSize
	end := start + l.RecordSize
	if end > len(buf) {
		return Frame{}, false
	}
	return Frame{Seq: seq, Start: start, End: end, Data: buf[start:end]}, true
}

// Split slices every complete record out of buf. A trailing partial record
// is returned as a Span instead of a Frame.
func (l Layout) Split(buf []byte) ([]Frame, []Span) {
	if l.RecordSize <= 0 || len(buf) < l.HeaderSize {
		return nil, nil
	}

	var frames []Frame
	for seq := 0; ; seq++ {
		f, ok := l.Frame(buf, seq)
		if !ok {
			break
		}
		frames = append(frames, f)
	}

	var spans []Span
	consumed := l.HeaderSize + len(frames)*l.RecordSize
	if consumed < len(buf) {
		spans = append(spans, Span{Start: consumed, End: consumed + l.RecordSize})
	}
	return frames, spans
}

// Uint32 reads a little-endian uint32 at off.
func Uint32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// Uint64 reads a little-endian uint64 at off.
func Uint64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// Int64 reads a little-endian two's complement int64 at off.
func Int64(b []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(b[off : off+8]))
}

// Copy returns an owned copy of n bytes at off.
func Copy(b []byte, off, n int) []byte {
	out := make([]byte, n)
	copy(out, b[off:off+n])
	return out
}
