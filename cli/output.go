package cli

// This file contains output file handling. Output goes to a temporary
// file next to the destination which is renamed once complete.

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrOutputExists means the output file is already present.
var ErrOutputExists = errors.New("output file already exists")

func checkOutput(path string) error {
	if path == "" {
		return nil
	}
	_, err := os.Lstat(path)
	if err == nil {
		return withCode(ExitArgument, fmt.Errorf("%w: %s", ErrOutputExists, path))
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return withCode(ExitOpenFile, fmt.Errorf("failed to check output file: %w", err))
	}
	return nil
}

func (a *App) writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		if err := write(a.stdout); err != nil {
			return withCode(ExitWrite, fmt.Errorf("failed to write output: %w", err))
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return withCode(ExitWrite, fmt.Errorf("failed to create temporary output file: %w", err))
	}
	tmpPath := tmp.Name()
	a.logger.Debug().Str("path", tmpPath).Msg("Writing temporary output file")

	committed := false
	defer func() {
		if !committed {
			if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				a.logger.Debug().Err(err).Str("path", tmpPath).Msg("Failed to clean up temporary output file")
			}
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return withCode(ExitWrite, fmt.Errorf("failed to write output: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return withCode(ExitWrite, fmt.Errorf("failed to close output: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return withCode(ExitWrite, fmt.Errorf("failed to move output into place: %w", err))
	}
	committed = true

	a.logger.Debug().Str("path", path).Msg("Output written")
	return nil
}
