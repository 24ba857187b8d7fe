// Package config holds the output options of a run. Options come from an
// optional YAML defaults file, overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rbinspect/rbinspect/pathconv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidOption means options conflict or hold an unusable value.
var ErrInvalidOption = errors.New("invalid option")

// Format selects the output renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatTSV   Format = "tsv"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
	FormatXML   Format = "xml"
	FormatJSON  Format = "json"
)

// Formats lists every accepted format name.
var Formats = []Format{FormatText, FormatTSV, FormatCSV, FormatTable, FormatXML, FormatJSON}

// ParseFormat returns the format named s, case insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidOption, s)
}

// Delimited reports whether the format is a delimited text format that
// honours Delimiter and NoHeading.
func (f Format) Delimited() bool {
	return f == FormatText || f == FormatTSV
}

// DefaultDelimiter separates text output columns.
const DefaultDelimiter = "\t"

// Options is passed explicitly to decoders and renderers.
type Options struct {
	Format Format `yaml:"format"`
	// Nil means the default; an explicit empty delimiter is allowed.
	Delimiter *string `yaml:"delimiter"`
	NoHeading bool    `yaml:"no_heading"`
	LocalTime bool    `yaml:"localtime"`
	// Code page of INFO2 legacy paths. Empty renders the Unicode path.
	Codepage  string `yaml:"codepage"`
	HumanSize bool   `yaml:"human_size"`
	// Output file, empty for stdout
	Output string `yaml:"-"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{Format: FormatText}
}

// Load reads a YAML defaults file on top of Default.
func Load(path string) (Options, error) {
	opts := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return Options{}, fmt.Errorf("%w: invalid config yaml %s: %v", ErrInvalidOption, path, err)
	}

	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Format, err = ParseFormat(string(opts.Format)); err != nil {
		return Options{}, err
	}
	if opts.Delimiter != nil {
		d := UnescapeDelimiter(*opts.Delimiter)
		opts.Delimiter = &d
	}
	return opts, nil
}

// FieldDelimiter returns the column separator for delimited formats.
func (o Options) FieldDelimiter() string {
	if o.Delimiter == nil {
		return DefaultDelimiter
	}
	return *o.Delimiter
}

// Validate checks options for conflicts. Code page problems wrap the
// pathconv errors.
func (o Options) Validate() error {
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if !o.Format.Delimited() {
		if o.Delimiter != nil {
			return fmt.Errorf("%w: delimiter can only be used with text output, not %s", ErrInvalidOption, o.Format)
		}
		if o.NoHeading {
			return fmt.Errorf("%w: no-heading can only be used with text output, not %s", ErrInvalidOption, o.Format)
		}
	}
	if o.Codepage != "" {
		if err := pathconv.Validate(o.Codepage); err != nil {
			return fmt.Errorf("%w: legacy filename code page: %w", ErrInvalidOption, err)
		}
	}
	return nil
}

// UnescapeDelimiter interprets \t, \n, \r and \\ in a delimiter given on
// the command line. Other backslashes are kept as is.
func UnescapeDelimiter(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}
