package model

import (
	"fmt"
	"strconv"
)

// LedgerKey identifies what a ledger entry is about. It is one of ByIndex,
// ByByteRange or ByFileIdentity.
type LedgerKey interface {
	fmt.Stringer
	ledgerKey()
}

// ByIndex keys an error to a record index.
type ByIndex uint32

// ByByteRange keys an error to a region of the artifact that could not be
// delimited into a record. End is exclusive.
type ByByteRange struct {
	Start uint64
	End   uint64
}

// ByFileIdentity keys an error to a whole artifact file.
type ByFileIdentity string

func (ByIndex) ledgerKey()        {}
func (ByByteRange) ledgerKey()    {}
func (ByFileIdentity) ledgerKey() {}

func (k ByIndex) String() string {
	return formatUint(uint64(k))
}

func (k ByByteRange) String() string {
	return fmt.Sprintf("byte range %d - %d", k.Start, k.End)
}

func (k ByFileIdentity) String() string {
	return string(k)
}

// LedgerEntry is a single isolated failure.
type LedgerEntry struct {
	Key LedgerKey
	Err error
}

// Ledger holds file-level and byte-range errors in the order they were
// found. Adding an existing key replaces its error.
type Ledger struct {
	entries []LedgerEntry
}

// Add records err under key.
func (l *Ledger) Add(key LedgerKey, err error) {
	for i := range l.entries {
		if l.entries[i].Key == key {
			l.entries[i].Err = err
			return
		}
	}
	l.entries = append(l.entries, LedgerEntry{Key: key, Err: err})
}

// Get returns the error recorded under key.
func (l *Ledger) Get(key LedgerKey) (error, bool) {
	for _, e := range l.entries {
		if e.Key == key {
			return e.Err, true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in insertion order.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}
