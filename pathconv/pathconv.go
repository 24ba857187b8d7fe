// Package pathconv turns raw path bytes captured from recycle bin indexes
// into UTF-8 text. Unicode paths are UTF-16LE; legacy 8.3 paths are in the
// ANSI code page of the system that deleted the file.
package pathconv

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrUnsupportedCodepage means the code page identifier is unknown.
	ErrUnsupportedCodepage = errors.New("unsupported code page")
	// ErrIllegalSequence means the bytes are not valid in the encoding.
	ErrIllegalSequence = errors.New("illegal byte sequence")
)

// Kind selects how raw path bytes are interpreted.
type Kind uint8

const (
	Unicode Kind = iota
	Legacy
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// printableASCII is used to probe whether a code page is ASCII compatible.
var printableASCII = func() []byte {
	b := make([]byte, 0, 0x7f-0x20)
	for c := byte(0x20); c < 0x7f; c++ {
		b = append(b, c)
	}
	return b
}()

// Convert decodes raw as a path of the given kind. codepage is only
// consulted for Legacy paths; empty means ASCII only.
func Convert(raw []byte, kind Kind, codepage string) (string, error) {
	switch kind {
	case Unicode:
		return DecodeUnicode(raw)
	case Legacy:
		return DecodeLegacy(raw, codepage)
	}
	return "", fmt.Errorf("unknown path kind %d", kind)
}

// DecodeUnicode decodes UTF-16LE up to the first NUL code unit.
func DecodeUnicode(raw []byte) (string, error) {
	units := raw
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			units = raw[:i]
			break
		}
	}

	out, err := utf16le.NewDecoder().Bytes(units)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIllegalSequence, err)
	}
	if countReplacement(out) > countUnicodeReplacement(units) {
		return "", fmt.Errorf("%w: invalid UTF-16 surrogate sequence", ErrIllegalSequence)
	}
	return string(out), nil
}

// DecodeLegacy decodes a single-byte/DBCS path up to the first NUL byte.
func DecodeLegacy(raw []byte, codepage string) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	if codepage == "" {
		for i, c := range raw {
			if c >= 0x80 {
				return "", fmt.Errorf("%w: non-ASCII byte 0x%02X at offset %d without a code page",
					ErrIllegalSequence, c, i)
			}
		}
		return string(raw), nil
	}

	enc, err := Lookup(codepage)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIllegalSequence, err)
	}
	if countReplacement(out) > 0 {
		return "", fmt.Errorf("%w: path is not valid %s", ErrIllegalSequence, codepage)
	}
	return string(out), nil
}

// Encode converts text into the named code page.
func Encode(text, codepage string) ([]byte, error) {
	enc, err := Lookup(codepage)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalSequence, err)
	}
	return out, nil
}

// Validate checks, without converting any path, that codepage is known and
// maps printable ASCII to itself.
func Validate(codepage string) error {
	enc, err := Lookup(codepage)
	if err != nil {
		return err
	}
	if !asciiCompatible(enc) {
		return fmt.Errorf("%w: %q is incompatible to any Windows code page", ErrIllegalSequence, codepage)
	}
	return nil
}

func asciiCompatible(enc encoding.Encoding) bool {
	out, err := enc.NewDecoder().Bytes(printableASCII)
	if err != nil {
		return false
	}
	return bytes.Equal(out, printableASCII)
}

func countReplacement(b []byte) int {
	return strings.Count(string(b), "\uFFFD")
}

func countUnicodeReplacement(units []byte) int {
	n := 0
	for i := 0; i+1 < len(units); i += 2 {
		if units[i] == 0xFD && units[i+1] == 0xFF {
			n++
		}
	}
	return n
}
