// Package discover locates $I index files inside a $Recycle.Bin folder and
// checks which deleted items still have their $R payload beside them.
package discover

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbinspect/rbinspect/model"
	"github.com/rs/zerolog"
)

// RecycleBinCLSID is written into desktop.ini of every recycle bin folder.
const RecycleBinCLSID = "{645FF040-5081-101B-9F08-08002B30309B}"

const (
	indexPrefix   = "$I"
	payloadPrefix = "$R"
	desktopINI    = "desktop.ini"
)

var indexPatterns = []string{"$I??????", "$I??????.*"}

var (
	// ErrNoIndexFiles means a directory holds neither $I files nor a
	// recycle bin desktop.ini.
	ErrNoIndexFiles = errors.New("no files with name pattern '$Ixxxxxx.*' are found in directory")
	// ErrNotRegular means the path is neither a directory nor a regular file.
	ErrNotRegular = errors.New("not a normal file or directory")
)

// Input is the set of $I files to decode for one invocation.
type Input struct {
	// Root is the path as given by the user
	Root string
	// Paths are the $I files in name order
	Paths []string
	// Isolated is set when a single $I file was taken out of its recycle
	// bin folder, so companion $R files cannot be looked up.
	Isolated bool
}

// IsIndexName reports whether name looks like a $I index file.
func IsIndexName(name string) bool {
	for _, pattern := range indexPatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Find resolves path, a recycle bin folder or a single $I file, into the
// list of index files to decode.
func Find(logger zerolog.Logger, path string) (Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Input{}, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if info.Mode().IsRegular() {
		isolated := !HasRecycleBinMarker(logger, filepath.Dir(path))
		if isolated {
			logger.Debug().Str("path", path).Msg("Index file is not inside a recycle bin folder")
		}
		return Input{Root: path, Paths: []string{path}, Isolated: isolated}, nil
	}
	if !info.IsDir() {
		return Input{}, fmt.Errorf("%q: %w", path, ErrNotRegular)
	}

	paths, err := listIndexFiles(logger, path)
	if err != nil {
		return Input{}, err
	}
	if len(paths) == 0 && !HasRecycleBinMarker(logger, path) {
		return Input{}, fmt.Errorf("%q: %w", path, ErrNoIndexFiles)
	}

	logger.Debug().Str("path", path).Int("count", len(paths)).Msg("Found index files")
	return Input{Root: path, Paths: paths}, nil
}

// listIndexFiles returns the $I files directly inside dir, sorted by name.
func listIndexFiles(logger zerolog.Logger, dir string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read directory entry")
			return nil
		}

		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if IsIndexName(d.Name()) && d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}
	return paths, nil
}

// HasRecycleBinMarker reports whether dir contains a desktop.ini that names
// the recycle bin CLSID. Read failures count as absent.
func HasRecycleBinMarker(logger zerolog.Logger, dir string) bool {
	path := filepath.Join(dir, desktopINI)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to read desktop.ini")
		return false
	}

	// desktop.ini is often UTF-16LE; compare ASCII bytes with NULs dropped.
	return bytes.Contains(bytes.ReplaceAll(data, []byte{0}, nil), []byte(RecycleBinCLSID))
}

// PayloadPath returns the $R file that belongs to the $I file at path.
func PayloadPath(path string) string {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, indexPrefix) {
		return ""
	}
	return filepath.Join(filepath.Dir(path), payloadPrefix+strings.TrimPrefix(name, indexPrefix))
}

// ResolvePresence sets the presence of every per-item record from the
// existence of its $R file. Records of an isolated index stay Unknown.
func ResolvePresence(logger zerolog.Logger, in Input, meta *model.RunMetadata) {
	if in.Isolated {
		return
	}

	for _, rec := range meta.Records {
		payload := PayloadPath(rec.Source)
		if payload == "" {
			continue
		}
		if _, err := os.Lstat(payload); err == nil {
			rec.Presence = model.PresenceStillOnDisk
		} else {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Err(err).Str("path", payload).Msg("Failed to check payload file")
			}
			rec.Presence = model.PresenceGone
		}
	}
}
