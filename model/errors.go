package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptHeader means the artifact is too short or its header
	// declares more data than the file holds.
	ErrCorruptHeader = errors.New("corrupt header")
	// ErrUnrecognizedLayout means the record layout matches no known
	// Windows release.
	ErrUnrecognizedLayout = errors.New("unrecognized layout")
	// ErrTruncatedRecord means a record slice runs past the end of file.
	ErrTruncatedRecord = errors.New("truncated record")
	// ErrBadTimestamp means a deletion time is outside any plausible range.
	ErrBadTimestamp = errors.New("illegal deletion time")
)

// FatalError is a failure that aborted decoding of one artifact file.
type FatalError struct {
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a file-level failure of path.
func Fatal(path string, err error) error {
	return &FatalError{Path: path, Err: err}
}
