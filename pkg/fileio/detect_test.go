package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestAutodetect(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    Format
	}{
		{
			name:    "intel hex",
			content: []byte(":10010000214601360121470136007EFE09D2190140\n:00000001FF\n"),
			want:    FormatIntelHex,
		},
		{
			name:    "s-record",
			content: []byte("S00F000068656C6C6F202020202000003C\nS9030000FC\n"),
			want:    FormatSRec,
		},
		{
			name:    "elf",
			content: []byte{0x7f, 'E', 'L', 'F', 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			want:    FormatELF,
		},
		{
			name:    "hex after comment lines",
			content: []byte("# build artifact\n\n:00000001FF\n"),
			want:    FormatIntelHex,
		},
		{
			name:    "empty",
			content: nil,
			want:    FormatUnknown,
		},
		{
			name:    "text garbage",
			content: []byte("this is not firmware\n"),
			want:    FormatUnknown,
		},
		{
			name:    "binary garbage",
			content: []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0xff},
			want:    FormatUnknown,
		},
		{
			name:    "colon but not hex",
			content: []byte(":zz this only looks like a record\n"),
			want:    FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "probe", tt.content)
			got, err := Autodetect(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAutodetectMissingFile(t *testing.T) {
	_, err := Autodetect(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectByExt(t *testing.T) {
	assert.Equal(t, FormatIntelHex, DetectByExt("app.hex"))
	assert.Equal(t, FormatIntelHex, DetectByExt("app.iHEX"))
	assert.Equal(t, FormatIntelHex, DetectByExt("rom.eep"))
	assert.Equal(t, FormatSRec, DetectByExt("app.srec"))
	assert.Equal(t, FormatRawBin, DetectByExt("app.bin"))
	assert.Equal(t, FormatUnknown, DetectByExt("app.elf"))
	assert.Equal(t, FormatUnknown, DetectByExt("README"))
}
