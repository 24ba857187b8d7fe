// Package wintime converts Windows FILETIME values (100ns ticks since
// 1601-01-01 UTC) to and from time.Time at one second resolution.
package wintime

import (
	"fmt"
	"math"
	"time"

	"github.com/rbinspect/rbinspect/model"
)

const (
	// EpochOffset is the number of ticks between 1601-01-01 and 1970-01-01.
	EpochOffset int64 = 116444736000000000
	// TicksPerSecond is the FILETIME resolution.
	TicksPerSecond int64 = 10000000

	maxYear = 9999
)

// ToTime converts a FILETIME to a UTC instant, dropping sub-second ticks.
// Every input converts; nonsense input yields a nonsense date.
func ToTime(raw int64) time.Time {
	var secs int64
	if raw >= math.MinInt64+EpochOffset {
		secs = (raw - EpochOffset) / TicksPerSecond
	} else {
		secs = raw/TicksPerSecond - EpochOffset/TicksPerSecond
	}
	return time.Unix(secs, 0).UTC()
}

// FromTime converts t back to a FILETIME at second resolution.
func FromTime(t time.Time) int64 {
	return t.Unix()*TicksPerSecond + EpochOffset
}

// Plausible reports whether raw can be a real deletion time.
func Plausible(raw int64) error {
	if raw < 0 {
		return fmt.Errorf("%w: negative FILETIME %d", model.ErrBadTimestamp, raw)
	}
	if t := ToTime(raw); t.Year() > maxYear {
		return fmt.Errorf("%w: FILETIME %d is beyond year %d", model.ErrBadTimestamp, raw, maxYear)
	}
	return nil
}
