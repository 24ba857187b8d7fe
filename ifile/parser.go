// Package ifile decodes $I index files, one per deleted item, as written by
// Windows Vista and later.
package ifile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rbinspect/rbinspect/frame"
	"github.com/rbinspect/rbinspect/model"
	"github.com/rbinspect/rbinspect/wintime"
	"github.com/rs/zerolog"
)

// Sub-versions stored in the first 8 bytes.
const (
	VersionVista int64 = 1
	VersionWin10 int64 = 2
)

const (
	versionSize = 8

	// Offsets relative to the end of the version field.
	sizeOffset     = 0
	filetimeOffset = 8
	v1PathOffset   = 16
	v1PathWidth    = 520
	v2LengthOffset = 16
	v2PathOffset   = 20

	// V1FileSize is the fixed size of a Vista-style $I file.
	V1FileSize = versionSize + v1PathOffset + v1PathWidth
	// V2HeaderSize is the size of a Windows 10 $I file before its path.
	V2HeaderSize = versionSize + v2PathOffset
)

// Parser decodes $I files.
type Parser struct {
	logger zerolog.Logger
}

// New creates a new parser instance
func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile decodes the $I file at path. The record index is the file name.
func (p *Parser) ParseFile(path string) (*model.Record, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, model.Fatal(path, fmt.Errorf("failed to open index file: %w", err))
	}
	defer f.Close()

	rec, version, err := p.Parse(filepath.Base(path), f)
	if err != nil {
		return nil, 0, model.Fatal(path, err)
	}
	rec.Source = path
	return rec, version, nil
}

// Parse decodes a single $I stream named name. Any error is fatal for this
// file only.
func (p *Parser) Parse(name string, reader io.Reader) (*model.Record, int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read index file: %w", err)
	}
	if len(data) < versionSize {
		return nil, 0, fmt.Errorf("%w: file is %d bytes, version field needs %d",
			model.ErrCorruptHeader, len(data), versionSize)
	}

	version := frame.Int64(data, 0)
	layout, err := layoutFor(version, data)
	if err != nil {
		return nil, 0, err
	}

	f, ok := layout.Frame(data, 0)
	if !ok {
		return nil, 0, fmt.Errorf("%w: file is %d bytes, version %d needs %d",
			model.ErrCorruptHeader, len(data), version, layout.HeaderSize+layout.RecordSize)
	}

	filetime := frame.Int64(f.Data, filetimeOffset)
	size := frame.Uint64(f.Data, sizeOffset)

	rec := &model.Record{
		Index:        model.TokenIndex(name),
		DeletedAt:    wintime.ToTime(filetime),
		Presence:     model.PresenceUnknown,
		RecordedSize: &size,
	}

	switch version {
	case VersionVista:
		rec.RawUnicodePath = frame.Copy(f.Data, v1PathOffset, v1PathWidth)
	case VersionWin10:
		rec.RawUnicodePath = frame.Copy(f.Data, v2PathOffset, len(f.Data)-v2PathOffset)
	}

	if err := wintime.Plausible(filetime); err != nil {
		rec.AttachError(err)
	}

	p.logger.Debug().
		Str("file", name).
		Int64("version", version).
		Int64("filetime", filetime).
		Time("deleted", rec.DeletedAt).
		Uint64("size", size).
		Msg("Decoded $I record")

	return rec, version, nil
}

// layoutFor returns the record layout of the given sub-version. The version
// field counts as the header.
func layoutFor(version int64, data []byte) (frame.Layout, error) {
	switch version {
	case VersionVista:
		return frame.Layout{HeaderSize: versionSize, RecordSize: V1FileSize - versionSize}, nil
	case VersionWin10:
		if len(data) < V2HeaderSize {
			return frame.Layout{}, fmt.Errorf("%w: path length field missing, file is %d bytes",
				model.ErrCorruptHeader, len(data))
		}
		units := uint64(frame.Uint32(data, versionSize+v2LengthOffset))
		need := uint64(V2HeaderSize) + 2*units
		if need > uint64(len(data)) {
			return frame.Layout{}, fmt.Errorf("%w: path of %d units needs %d bytes, file is %d bytes",
				model.ErrCorruptHeader, units, need, len(data))
		}
		return frame.Layout{HeaderSize: versionSize, RecordSize: int(need) - versionSize}, nil
	}
	return frame.Layout{}, fmt.Errorf("%w: unknown $I version %d", model.ErrUnrecognizedLayout, version)
}

// ParseFiles decodes every file in order. A fatal error in one file is
// recorded in meta.Errors under its path and the remaining files are still
// decoded.
func (p *Parser) ParseFiles(paths []string, meta *model.RunMetadata) {
	for _, path := range paths {
		rec, version, err := p.ParseFile(path)
		if err != nil {
			p.logger.Warn().Err(err).Str("path", path).Msg("Failed to decode index file")
			meta.Errors.Add(model.ByFileIdentity(path), err)
			continue
		}
		meta.ObserveVersion(version)
		meta.AppendRecord(rec)
	}
}
