package info2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/rbinspect/rbinspect/model"
	"github.com/rbinspect/rbinspect/pathconv"
	"github.com/rbinspect/rbinspect/wintime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	legacy   string
	unicode  string
	index    uint32
	drive    uint32
	filetime int64
	size     uint32
	gone     bool
	junk     bool
}

func buildHeader(version, kept, total, recordSize uint32) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:], version)
	binary.LittleEndian.PutUint32(b[4:], kept)
	binary.LittleEndian.PutUint32(b[8:], total)
	binary.LittleEndian.PutUint32(b[12:], recordSize)
	return b
}

func buildRecord(r testRecord, recordSize int) []byte {
	b := make([]byte, recordSize)
	copy(b, r.legacy)
	if r.junk {
		for i := len(r.legacy) + 1; i < legacyPathWidth; i++ {
			b[i] = 0xCC
		}
	}
	if r.gone {
		b[0] = 0
	}
	binary.LittleEndian.PutUint32(b[indexOffset:], r.index)
	binary.LittleEndian.PutUint32(b[driveOffset:], r.drive)
	binary.LittleEndian.PutUint64(b[filetimeOffset:], uint64(r.filetime))
	binary.LittleEndian.PutUint32(b[sizeOffset:], r.size)
	off := unicodePathOffset
	for _, c := range r.unicode {
		if off+2 > recordSize {
			break
		}
		binary.LittleEndian.PutUint16(b[off:], uint16(c))
		off += 2
	}
	return b
}

func buildFile(version uint32, recordSize int, records ...testRecord) []byte {
	var buf bytes.Buffer
	buf.Write(buildHeader(version, uint32(len(records)), uint32(len(records)), uint32(recordSize)))
	for _, r := range records {
		buf.Write(buildRecord(r, recordSize))
	}
	return buf.Bytes()
}

func parse(t *testing.T, data []byte) (*model.RunMetadata, error) {
	t.Helper()
	meta := model.NewRunMetadata(model.ArtifactKindLegacyIndex, "INFO2")
	err := New(zerolog.Nop()).Parse(bytes.NewReader(data), meta)
	return meta, err
}

var deleted = time.Date(2006, 3, 17, 9, 41, 12, 0, time.UTC)

func TestParser_ParseXP(t *testing.T) {
	data := buildFile(VersionME03, 800,
		testRecord{
			legacy:   `C:\DOCUME~1\alice\MYDOCU~1\REPORT~1.DOC`,
			unicode:  `C:\Documents and Settings\alice\My Documents\Report final.doc`,
			index:    1,
			drive:    2,
			filetime: wintime.FromTime(deleted),
			size:     40960,
		},
		testRecord{
			legacy:   `C:\TEMP\A.TXT`,
			unicode:  `C:\Temp\a.txt`,
			index:    2,
			drive:    2,
			filetime: wintime.FromTime(deleted.Add(time.Hour)),
			size:     12,
			gone:     true,
		},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Equal(t, 0, meta.Errors.Len())
	require.Len(t, meta.Records, 2)
	require.NotNil(t, meta.DetectedVersion)
	require.Equal(t, int64(800), *meta.DetectedVersion)
	require.Equal(t, VersionME03, meta.HeaderVersion)
	require.Equal(t, uint32(800), meta.RecordSize)
	require.Equal(t, uint32(2), *meta.TotalEverDeleted)
	require.False(t, meta.FillJunk)

	first := meta.Records[0]
	require.Equal(t, model.NumberIndex(1), first.Index)
	require.True(t, deleted.Equal(first.DeletedAt))
	require.Equal(t, model.PresenceStillOnDisk, first.Presence)
	require.Equal(t, uint64(40960), *first.RecordedSize)
	require.NoError(t, first.LocalError)

	path, err := pathconv.DecodeUnicode(first.RawUnicodePath)
	require.NoError(t, err)
	require.Equal(t, `C:\Documents and Settings\alice\My Documents\Report final.doc`, path)

	second := meta.Records[1]
	require.Equal(t, model.PresenceGone, second.Presence)
	legacy, err := pathconv.DecodeLegacy(second.RawLegacyPath, "")
	require.NoError(t, err)
	require.Equal(t, `C:\TEMP\A.TXT`, legacy)
}

func TestParser_ParseHeaderOnly(t *testing.T) {
	meta, err := parse(t, buildHeader(VersionME03, 0, 7, 800))
	require.NoError(t, err)
	require.Empty(t, meta.Records)
	require.Nil(t, meta.DetectedVersion)
	require.Equal(t, 0, meta.Errors.Len())
	require.Equal(t, uint32(7), *meta.TotalEverDeleted)
}

func TestParser_ParseFatal(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "shorter than header",
			data:    make([]byte, HeaderSize-1),
			wantErr: model.ErrCorruptHeader,
		},
		{
			name:    "body not a multiple of any record size",
			data:    append(buildHeader(VersionME03, 1, 1, 800), make([]byte, 100)...),
			wantErr: model.ErrUnrecognizedLayout,
		},
		{
			name:    "unknown record size in header",
			data:    append(buildHeader(VersionME03, 1, 1, 512), make([]byte, 512)...),
			wantErr: model.ErrUnrecognizedLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := parse(t, tt.data)
			require.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
			require.Empty(t, meta.Records)
		})
	}
}

func TestParser_ParseTrailingPartialRecord(t *testing.T) {
	// 1680 bytes is six 280-byte records but only two complete 800-byte ones.
	data := buildFile(VersionME03, 800,
		testRecord{legacy: `C:\A.TXT`, unicode: `C:\a.txt`, index: 1, drive: 2, filetime: wintime.FromTime(deleted), size: 1},
		testRecord{legacy: `C:\B.TXT`, unicode: `C:\b.txt`, index: 2, drive: 2, filetime: wintime.FromTime(deleted), size: 2},
	)
	data = append(data, make([]byte, 80)...)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 2)
	require.Equal(t, 1, meta.Errors.Len())

	rangeErr, ok := meta.Errors.Get(model.ByByteRange{Start: 1620, End: 2420})
	require.True(t, ok)
	require.True(t, errors.Is(rangeErr, model.ErrTruncatedRecord))
}

func TestParser_ParseSizeSentinel(t *testing.T) {
	data := buildFile(VersionME03, 800,
		testRecord{legacy: `C:\BIG.ISO`, unicode: `C:\big.iso`, index: 3, drive: 2, filetime: wintime.FromTime(deleted), size: SizeSentinel},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 1)
	require.Nil(t, meta.Records[0].RecordedSize)
	require.NoError(t, meta.Records[0].LocalError)
	require.False(t, meta.HasErrors())
}

func TestParser_ParseBadTimestamp(t *testing.T) {
	data := buildFile(VersionME03, 800,
		testRecord{legacy: `C:\X.TXT`, unicode: `C:\x.txt`, index: 4, drive: 2, filetime: -42, size: 10},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 1)

	rec := meta.Records[0]
	require.True(t, errors.Is(rec.LocalError, model.ErrBadTimestamp))
	require.Equal(t, uint64(10), *rec.RecordedSize)
	require.Equal(t, model.NumberIndex(4), rec.Index)
	require.True(t, meta.HasErrors())
}

func TestParser_ParseLegacyOnly(t *testing.T) {
	data := buildFile(VersionME03, 280,
		testRecord{legacy: `C:\WINDOWS\DESKTOP\NOTE.TXT`, index: 0, drive: 2, filetime: wintime.FromTime(deleted), size: 5},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 1)
	require.Nil(t, meta.Records[0].RawUnicodePath)
	require.Equal(t, int64(280), *meta.DetectedVersion)
}

func TestParser_ParseFillJunk(t *testing.T) {
	data := buildFile(VersionME03, 800,
		testRecord{legacy: `C:\A.TXT`, unicode: `C:\a.txt`, index: 1, drive: 2, filetime: wintime.FromTime(deleted), size: 1, junk: true},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.True(t, meta.FillJunk)
}

func TestParser_ParseInferredRecordSize(t *testing.T) {
	data := buildFile(VersionME03, 800,
		testRecord{legacy: `C:\A.TXT`, unicode: `C:\a.txt`, index: 1, drive: 2, filetime: wintime.FromTime(deleted), size: 1},
	)
	// Clear the record size so it has to come from the kept-entry count.
	binary.LittleEndian.PutUint32(data[recordSizeOffset:], 0)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 1)
	require.Equal(t, uint32(800), meta.RecordSize)
}

func TestParser_ParseInvalidLegacyPath(t *testing.T) {
	data := buildFile(VersionME03, 280,
		testRecord{legacy: "C:\\\x81\x20.TXT", index: 9, drive: 2, filetime: wintime.FromTime(deleted), size: 77},
	)

	meta, err := parse(t, data)
	require.NoError(t, err)
	require.Len(t, meta.Records, 1)

	rec := meta.Records[0]
	_, convErr := pathconv.DecodeLegacy(rec.RawLegacyPath, "932")
	require.True(t, errors.Is(convErr, pathconv.ErrIllegalSequence))
	rec.AttachError(convErr)

	require.Error(t, rec.LocalError)
	require.Equal(t, uint64(77), *rec.RecordedSize)
	require.True(t, deleted.Equal(rec.DeletedAt))
	require.Equal(t, model.NumberIndex(9), rec.Index)
}
