package hw

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrPaletteSize is returned when a palette file doesn't hold exactly 64 RGB
// triplets.
var ErrPaletteSize = errors.New("palette must be 192 bytes")

// Palette holds the RGB color of each of the 64 NES colors.
type Palette [64][3]uint8

// DefaultPalette is the palette used when none is loaded.
var DefaultPalette = func() (p Palette) {
	rgb := [64]uint32{
		0x7C7C7C, 0x0000FC, 0x0000BC, 0x4428BC, 0x940084, 0xA80020, 0xA81000, 0x881400,
		0x503000, 0x007800, 0x006800, 0x005800, 0x004058, 0x000000, 0x000000, 0x000000,
		0xBCBCBC, 0x0078F8, 0x0058F8, 0x6844FC, 0xD800CC, 0xE40058, 0xF83800, 0xE45C10,
		0xAC7C00, 0x00B800, 0x00A800, 0x00A844, 0x008888, 0x000000, 0x000000, 0x000000,
		0xF8F8F8, 0x3CBCFC, 0x6888FC, 0x9878F8, 0xF878F8, 0xF85898, 0xF87858, 0xFCA044,
		0xF8B800, 0xB8F818, 0x58D854, 0x58F898, 0x00E8D8, 0x787878, 0x000000, 0x000000,
		0xFCFCFC, 0xA4E4FC, 0xB8B8F8, 0xD8B8F8, 0xF8B8F8, 0xF8A4C0, 0xF0D0B0, 0xFCE0A8,
		0xF8D878, 0xD8F878, 0xB8F8B8, 0xB8F8D8, 0x00FCFC, 0xF8D8F8, 0x000000, 0x000000,
	}
	for i, c := range rgb {
		p[i] = [3]uint8{uint8(c >> 16), uint8(c >> 8), uint8(c)}
	}
	return p
}()

// LoadPalette reads a raw palette: 64 RGB triplets, 192 bytes.
func LoadPalette(r io.Reader) (Palette, error) {
	var p Palette
	buf, err := io.ReadAll(io.LimitReader(r, 193))
	if err != nil {
		return p, err
	}
	if len(buf) != 192 {
		return p, fmt.Errorf("%w, got %d", ErrPaletteSize, len(buf))
	}
	for i := range p {
		copy(p[i][:], buf[i*3:])
	}
	return p, nil
}

// LoadPaletteFile reads a raw palette from the file at path.
func LoadPaletteFile(path string) (Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return Palette{}, err
	}
	defer f.Close()

	p, err := LoadPalette(f)
	if err != nil {
		return p, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// SetPalette sets the RGB palette, and derives the 8 color emphasis variants
// from it. Emphasized channels are brightened, the others dimmed.
func (p *PPU) SetPalette(pal Palette) {
	for emph := range 8 {
		for i, rgb := range pal {
			c := &p.colors[emph<<6|i]
			for ch := range 3 {
				c[ch] = emphasize(rgb[ch], emph, ch)
			}
			c[3] = 0xFF
		}
	}
}

func emphasize(v uint8, emph, ch int) uint8 {
	if emph == 0 {
		return v
	}
	f := 0.7
	if emph&(1<<ch) != 0 {
		f = 1.3
	}
	return uint8(min(255, float64(v)*f))
}
