package hw

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPalette(t *testing.T) {
	raw := make([]byte, 192)
	for i := range raw {
		raw[i] = uint8(i)
	}
	path := filepath.Join(t.TempDir(), "test.pal")
	tcheck(t, os.WriteFile(path, raw, 0o644))

	pal, err := LoadPaletteFile(path)
	tcheck(t, err)
	if pal[0] != [3]uint8{0, 1, 2} || pal[63] != [3]uint8{189, 190, 191} {
		t.Errorf("got pal[0]=%v pal[63]=%v", pal[0], pal[63])
	}

	for _, size := range []int{0, 191, 193, 1536} {
		_, err := LoadPalette(bytes.NewReader(make([]byte, size)))
		if !errors.Is(err, ErrPaletteSize) {
			t.Errorf("size %d: got err %v, want %v", size, err, ErrPaletteSize)
		}
	}
}

func TestEmphasis(t *testing.T) {
	p, _, _ := newTestPPU()
	var pal Palette
	pal[0x10] = [3]uint8{100, 100, 100}
	pal[0x20] = [3]uint8{250, 250, 250}
	p.SetPalette(pal)

	tests := []struct {
		emph  int
		color int
		want  [4]uint8
	}{
		{0b000, 0x10, [4]uint8{100, 100, 100, 0xFF}},
		{0b001, 0x10, [4]uint8{130, 70, 70, 0xFF}},
		{0b010, 0x10, [4]uint8{70, 130, 70, 0xFF}},
		{0b100, 0x10, [4]uint8{70, 70, 130, 0xFF}},
		{0b111, 0x10, [4]uint8{130, 130, 130, 0xFF}},
		{0b011, 0x20, [4]uint8{255, 255, 175, 0xFF}},
	}
	for _, tt := range tests {
		if got := p.colors[tt.emph<<6|tt.color]; got != tt.want {
			t.Errorf("emphasis %03b color $%02X = %v, want %v", tt.emph, tt.color, got, tt.want)
		}
	}
}
