package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	var l Ledger
	first := errors.New("first")
	second := errors.New("second")

	l.Add(ByIndex(3), first)
	l.Add(ByByteRange{Start: 20, End: 820}, ErrTruncatedRecord)
	l.Add(ByFileIdentity("$IAAAAAA"), ErrCorruptHeader)
	l.Add(ByIndex(3), second)

	require.Equal(t, 3, l.Len())
	err, ok := l.Get(ByIndex(3))
	require.True(t, ok)
	require.Equal(t, second, err)

	_, ok = l.Get(ByIndex(4))
	require.False(t, ok)

	entries := l.Entries()
	require.Equal(t, "3", entries[0].Key.String())
	require.Equal(t, "byte range 20 - 820", entries[1].Key.String())
	require.Equal(t, "$IAAAAAA", entries[2].Key.String())
}

func TestObserveVersion(t *testing.T) {
	meta := NewRunMetadata(ArtifactKindPerItemIndex, "bin")
	require.Nil(t, meta.DetectedVersion)

	meta.ObserveVersion(2)
	meta.ObserveVersion(2)
	require.Equal(t, int64(2), *meta.DetectedVersion)
	require.False(t, meta.VersionInconsistent)

	meta.ObserveVersion(1)
	require.True(t, meta.VersionInconsistent)
}

func TestRecordErrors(t *testing.T) {
	meta := NewRunMetadata(ArtifactKindLegacyIndex, "INFO2")
	rec := &Record{Index: NumberIndex(7)}
	meta.AppendRecord(rec)
	require.False(t, meta.HasErrors())

	rec.AttachError(nil)
	require.False(t, meta.HasErrors())

	rec.AttachError(ErrBadTimestamp)
	rec.AttachError(errors.New("bad path"))
	require.True(t, meta.HasErrors())
	require.True(t, errors.Is(rec.LocalError, ErrBadTimestamp))
	require.Equal(t, "7", rec.Index.String())
	require.Equal(t, "$Ix", TokenIndex("$Ix").String())
}

func TestFatalError(t *testing.T) {
	err := Fatal("INFO2", ErrCorruptHeader)
	require.Equal(t, "INFO2: corrupt header", err.Error())
	require.True(t, errors.Is(err, ErrCorruptHeader))
}
