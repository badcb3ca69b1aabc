package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: Test
Columns: 2
# comment
  0   0   0	black
100 200  50	green-ish
255 255 255	white
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {100, 200, 50}, {255, 255, 255}}, p.Colors)
}

func TestLoadGPLErrors(t *testing.T) {
	_, err := LoadGPL(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "empty.gpl")
	require.NoError(t, os.WriteFile(path, []byte("GIMP Palette\nName: Empty\n"), 0644))
	_, err = LoadGPL(path)
	assert.ErrorContains(t, err, "no colors")
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
}

func TestNewDefaults(t *testing.T) {
	th := New(nil)
	require.NotNil(t, th.Palette)
	assert.Equal(t, "midi-looper", th.Palette.Name)
	assert.Equal(t, '●', th.Symbols.Recording)
	assert.Equal(t, RGB{255, 0, 0}, th.Loop.Recording)
	assert.NotEmpty(t, string(th.FG()))
}
