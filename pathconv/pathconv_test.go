package pathconv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func utf16z(s string, width int) []byte {
	b := make([]byte, 0, width)
	for _, r := range s {
		b = append(b, byte(r), byte(r>>8))
	}
	for len(b) < width {
		b = append(b, 0)
	}
	return b
}

func TestDecodeUnicode(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    string
		wantErr error
	}{
		{
			name: "nul padded field",
			raw:  utf16z(`C:\Users\demo\report.docx`, 520),
			want: `C:\Users\demo\report.docx`,
		},
		{
			name: "no terminator",
			raw:  utf16z(`D:\a`, 8),
			want: `D:\a`,
		},
		{
			name: "non latin",
			raw:  utf16z(`C:\文件\résumé.txt`, 64),
			want: `C:\文件\résumé.txt`,
		},
		{
			name:    "lone high surrogate",
			raw:     []byte{'C', 0, ':', 0, 0x00, 0xD8, 'x', 0, 0, 0},
			wantErr: ErrIllegalSequence,
		},
		{
			name: "stored replacement character is kept",
			raw:  []byte{0xFD, 0xFF, 0, 0},
			want: "\uFFFD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUnicode(tt.raw)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLegacy(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		codepage string
		want     string
		wantErr  error
	}{
		{
			name:     "western european",
			raw:      []byte("C:\\CAF\xc9.TXT\x00junk"),
			codepage: "CP1252",
			want:     `C:\CAFÉ.TXT`,
		},
		{
			name:     "japanese",
			raw:      []byte("C:\\\x83\x65\x83\x58\x83\x67.TXT\x00"),
			codepage: "932",
			want:     `C:\テスト.TXT`,
		},
		{
			name:     "ascii without code page",
			raw:      []byte("C:\\DOCUME~1\\A.TXT\x00\x00"),
			codepage: "",
			want:     `C:\DOCUME~1\A.TXT`,
		},
		{
			name:     "high byte without code page",
			raw:      []byte("C:\\\xe9\x00"),
			codepage: "",
			wantErr:  ErrIllegalSequence,
		},
		{
			name:     "invalid trail byte",
			raw:      []byte("C:\\\x81\x20.TXT\x00"),
			codepage: "CP932",
			wantErr:  ErrIllegalSequence,
		},
		{
			name:     "unknown code page",
			raw:      []byte("C:\\A.TXT\x00"),
			codepage: "CP99999",
			wantErr:  ErrUnsupportedCodepage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLegacy(tt.raw, tt.codepage)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		codepage string
		text     string
	}{
		{"windows-1252", `C:\Dokumente\Übersicht.txt`},
		{"CP932", `C:\デスクトップ\メモ.txt`},
		{"936", `C:\桌面\文件.txt`},
		{"cp1251", `C:\Документы\отчет.doc`},
		{"Big5", `C:\桌面\檔案.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.codepage, func(t *testing.T) {
			raw, err := Encode(tt.text, tt.codepage)
			require.NoError(t, err)

			got, err := Convert(raw, Legacy, tt.codepage)
			require.NoError(t, err)
			require.Equal(t, tt.text, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		codepage string
		wantErr  error
	}{
		{codepage: "1252"},
		{codepage: "CP932"},
		{codepage: "MS936"},
		{codepage: "windows-1250"},
		{codepage: "Shift_JIS"},
		{codepage: "IBM437"},
		{codepage: "IBM037", wantErr: ErrIllegalSequence},
		{codepage: "UTF-16LE", wantErr: ErrIllegalSequence},
		{codepage: "no-such-charset", wantErr: ErrUnsupportedCodepage},
		{codepage: "", wantErr: ErrUnsupportedCodepage},
	}

	for _, tt := range tests {
		t.Run(tt.codepage, func(t *testing.T) {
			err := Validate(tt.codepage)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
		})
	}
}
