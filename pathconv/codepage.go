package pathconv

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// windowsCodePages maps Windows code page numbers to their tables.
var windowsCodePages = map[string]encoding.Encoding{
	"037":   charmap.CodePage037,
	"437":   charmap.CodePage437,
	"850":   charmap.CodePage850,
	"852":   charmap.CodePage852,
	"855":   charmap.CodePage855,
	"858":   charmap.CodePage858,
	"860":   charmap.CodePage860,
	"862":   charmap.CodePage862,
	"863":   charmap.CodePage863,
	"865":   charmap.CodePage865,
	"866":   charmap.CodePage866,
	"874":   charmap.Windows874,
	"932":   japanese.ShiftJIS,
	"936":   simplifiedchinese.GBK,
	"949":   korean.EUCKR,
	"950":   traditionalchinese.Big5,
	"1047":  charmap.CodePage1047,
	"1140":  charmap.CodePage1140,
	"1250":  charmap.Windows1250,
	"1251":  charmap.Windows1251,
	"1252":  charmap.Windows1252,
	"1253":  charmap.Windows1253,
	"1254":  charmap.Windows1254,
	"1255":  charmap.Windows1255,
	"1256":  charmap.Windows1256,
	"1257":  charmap.Windows1257,
	"1258":  charmap.Windows1258,
	"10000": charmap.Macintosh,
	"10007": charmap.MacintoshCyrillic,
	"20866": charmap.KOI8R,
	"21866": charmap.KOI8U,
	"28591": charmap.ISO8859_1,
	"28592": charmap.ISO8859_2,
	"28595": charmap.ISO8859_5,
	"28597": charmap.ISO8859_7,
	"28605": charmap.ISO8859_15,
	"54936": simplifiedchinese.GB18030,
}

var numberPrefixes = []string{"WINDOWS-", "WINDOWS", "CP-", "CP", "MS", "IBM"}

// Lookup resolves a code page identifier such as "1252", "CP932",
// "windows-1251" or an IANA name like "SHIFT_JIS".
func Lookup(name string) (encoding.Encoding, error) {
	id := strings.ToUpper(strings.TrimSpace(name))
	if id == "" {
		return nil, fmt.Errorf("%w: empty code page", ErrUnsupportedCodepage)
	}

	if enc, ok := windowsCodePages[id]; ok {
		return enc, nil
	}
	for _, prefix := range numberPrefixes {
		if rest, found := strings.CutPrefix(id, prefix); found && isDigits(rest) {
			if enc, ok := windowsCodePages[rest]; ok {
				return enc, nil
			}
		}
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodepage, name)
	}
	return enc, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
