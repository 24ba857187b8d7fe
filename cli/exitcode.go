package cli

// This file contains the mapping of errors to process exit codes.

import (
	"errors"

	"github.com/rbinspect/rbinspect/config"
	"github.com/urfave/cli/v2"
)

const (
	ExitOK          = 0
	ExitArgument    = 1
	ExitOpenFile    = 2
	ExitIllegalData = 3
	ExitWrite       = 4
	ExitDubious     = 5
	ExitUnhandled   = 127
)

var (
	// ErrDubiousData means output was written but some records or byte
	// ranges could not be fully decoded.
	ErrDubiousData = errors.New("some records or files could not be fully decoded")
	// ErrAllFilesFailed means none of the index files could be decoded.
	ErrAllFilesFailed = errors.New("no index file could be decoded")
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode returns the process exit status for an error returned by Run.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	if errors.Is(err, config.ErrInvalidOption) {
		return ExitArgument
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return ExitArgument
	}
	return ExitUnhandled
}
