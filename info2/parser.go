// Package info2 decodes the legacy INFO2 recycle bin index used by
// Windows 95 through Windows 2003.
package info2

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/rbinspect/rbinspect/frame"
	"github.com/rbinspect/rbinspect/model"
	"github.com/rbinspect/rbinspect/wintime"
	"github.com/rs/zerolog"
)

const (
	// HeaderSize is the size of the INFO2 header in bytes.
	HeaderSize = 20

	versionOffset    = 0
	keptCountOffset  = 4
	totalOffset      = 8
	recordSizeOffset = 12

	legacyPathOffset  = 0
	legacyPathWidth   = 260
	indexOffset       = 260
	driveOffset       = 264
	filetimeOffset    = 268
	sizeOffset        = 276
	unicodePathOffset = 280

	// SizeSentinel marks a file size that overflowed the 32-bit field.
	SizeSentinel = 0xFFFFFFFF
)

// Header version discriminants.
const (
	VersionWin95 uint32 = 0
	VersionNT4   uint32 = 2
	VersionWin98 uint32 = 4
	VersionME03  uint32 = 5
)

// KnownRecordSizes lists every record size seen in the wild, smallest
// first. Bytes past offset 280 hold the Unicode path.
var KnownRecordSizes = []int{280, 300, 320, 340, 800}

// Header is the decoded INFO2 header.
type Header struct {
	Version          uint32
	KeptCount        uint32
	TotalEverDeleted uint32
	RecordSize       uint32
}

// Parser decodes INFO2 files into a RunMetadata.
type Parser struct {
	logger zerolog.Logger
}

// New creates a new parser instance
func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile reads and decodes the INFO2 file at path.
func (p *Parser) ParseFile(path string, meta *model.RunMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return model.Fatal(path, fmt.Errorf("failed to open index file: %w", err))
	}
	defer f.Close()

	if err := p.Parse(f, meta); err != nil {
		return model.Fatal(path, err)
	}
	return nil
}

// Parse decodes an INFO2 stream. Records are appended to meta; slices that
// cannot be delimited go to meta.Errors. A returned error is fatal for the
// whole file and leaves meta.Records untouched.
func (p *Parser) Parse(reader io.Reader, meta *model.RunMetadata) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read index file: %w", err)
	}

	hdr, err := ParseHeader(data)
	if err != nil {
		return err
	}

	recordSize, err := resolveRecordSize(hdr, len(data)-HeaderSize)
	if err != nil {
		return err
	}

	p.logger.Debug().
		Uint32("version", hdr.Version).
		Uint32("kept", hdr.KeptCount).
		Uint32("total", hdr.TotalEverDeleted).
		Int("record_size", recordSize).
		Int("file_size", len(data)).
		Msg("Decoded INFO2 header")

	meta.HeaderVersion = hdr.Version
	meta.RecordSize = uint32(recordSize)
	total := hdr.TotalEverDeleted
	meta.TotalEverDeleted = &total

	layout := frame.Layout{HeaderSize: HeaderSize, RecordSize: recordSize}
	frames, spans := layout.Split(data)

	for _, f := range frames {
		rec, junk := p.decodeRecord(f)
		if junk {
			meta.FillJunk = true
		}
		meta.AppendRecord(rec)
	}

	for _, s := range spans {
		key := model.ByByteRange{Start: uint64(s.Start), End: uint64(s.End)}
		meta.Errors.Add(key, fmt.Errorf("%w: %d bytes left, record needs %d",
			model.ErrTruncatedRecord, len(data)-s.Start, recordSize))
		p.logger.Warn().Stringer("range", key).Msg("Skipped partial record")
	}

	if len(frames) > 0 {
		meta.ObserveVersion(int64(recordSize))
	}
	return nil
}

// ParseHeader decodes the fixed header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: file is %d bytes, header needs %d",
			model.ErrCorruptHeader, len(data), HeaderSize)
	}
	return Header{
		Version:          frame.Uint32(data, versionOffset),
		KeptCount:        frame.Uint32(data, keptCountOffset),
		TotalEverDeleted: frame.Uint32(data, totalOffset),
		RecordSize:       frame.Uint32(data, recordSizeOffset),
	}, nil
}

// resolveRecordSize picks the record size from the header, falling back to
// the kept-entry count and then to the smallest known size.
func resolveRecordSize(hdr Header, body int) (int, error) {
	size := int(hdr.RecordSize)
	if size == 0 {
		size = KnownRecordSizes[0]
		if hdr.KeptCount > 0 && body > 0 && body%int(hdr.KeptCount) == 0 {
			if inferred := body / int(hdr.KeptCount); slices.Contains(KnownRecordSizes, inferred) {
				size = inferred
			}
		}
	}

	if !slices.Contains(KnownRecordSizes, size) {
		return 0, fmt.Errorf("%w: record size %d", model.ErrUnrecognizedLayout, size)
	}
	if body%size == 0 {
		return size, nil
	}
	for _, known := range KnownRecordSizes {
		if body%known == 0 {
			return size, nil
		}
	}
	return 0, fmt.Errorf("%w: %d bytes of records is not a multiple of any known record size",
		model.ErrUnrecognizedLayout, body)
}

// decodeRecord extracts one record. It never fails; field problems are
// attached to the record. The second result reports filler junk after the
// legacy path terminator.
func (p *Parser) decodeRecord(f frame.Frame) (*model.Record, bool) {
	legacy := frame.Copy(f.Data, legacyPathOffset, legacyPathWidth)
	index := frame.Uint32(f.Data, indexOffset)
	drive := frame.Uint32(f.Data, driveOffset)
	filetime := frame.Int64(f.Data, filetimeOffset)
	size := frame.Uint32(f.Data, sizeOffset)

	rec := &model.Record{
		Index:     model.NumberIndex(index),
		DeletedAt: wintime.ToTime(filetime),
		Presence:  model.PresenceStillOnDisk,
	}

	// A purged or restored item has its first path byte zeroed; the drive
	// number still says which letter it was.
	if legacy[0] == 0 {
		rec.Presence = model.PresenceGone
		if drive < 26 {
			legacy[0] = 'A' + byte(drive)
		}
	}
	rec.RawLegacyPath = legacy

	junk := hasFillJunk(legacy)

	if size == SizeSentinel {
		p.logger.Debug().Uint32("index", index).Msg("Recorded size overflowed 32 bits")
	} else {
		v := uint64(size)
		rec.RecordedSize = &v
	}

	if len(f.Data) > unicodePathOffset {
		rec.RawUnicodePath = frame.Copy(f.Data, unicodePathOffset, len(f.Data)-unicodePathOffset)
	}

	if err := wintime.Plausible(filetime); err != nil {
		rec.AttachError(err)
	}

	p.logger.Debug().
		Uint32("index", index).
		Int64("filetime", filetime).
		Time("deleted", rec.DeletedAt).
		Stringer("presence", rec.Presence).
		Msg("Decoded INFO2 record")

	return rec, junk
}

// hasFillJunk reports non-zero bytes after the terminator of the legacy
// path. Only some releases leave this area uninitialized.
func hasFillJunk(legacy []byte) bool {
	end := bytes.IndexByte(legacy[1:], 0)
	if end < 0 {
		return false
	}
	for _, c := range legacy[end+2:] {
		if c != 0 {
			return true
		}
	}
	return false
}
