package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Golden files pin the exact record layout emitted by the writers:
// record sizes, address fields, checksums and terminators.

func TestIntelHexWriterGolden(t *testing.T) {
	p := testPart(t)
	flash := p.Memory("flash")
	for i := 0; i < 16; i++ {
		require.NoError(t, flash.Set(i, byte(i)))
	}

	path := filepath.Join(t.TempDir(), "golden.hex")
	_, err := Write(FormatIntelHex, path, p, "flash", 0)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "intelhex", content)
}

func TestSRecWriterGolden(t *testing.T) {
	p := testPart(t)
	flash := p.Memory("flash")
	for i := 0; i < 16; i++ {
		require.NoError(t, flash.Set(i, byte(i)))
	}

	path := filepath.Join(t.TempDir(), "golden.srec")
	_, err := Write(FormatSRec, path, p, "flash", 0)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "srec", content)
}
