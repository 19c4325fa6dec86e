package ines

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/tests"
)

func makeImage(hdr [16]byte, body int) []byte {
	copy(hdr[:], Magic)
	buf := append([]byte(nil), hdr[:]...)
	return append(buf, make([]byte, body)...)
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name      string
		hdr       [16]byte
		body      int
		mapper    uint16
		mirroring NTMirroring
		prg, chr  int
		prgram    int
		chrram    bool
	}{
		{
			name: "nrom horizontal",
			hdr:  [16]byte{4: 2, 5: 1},
			body: 2*prgUnit + chrUnit,
			prg:  2 * prgUnit, chr: chrUnit,
			mirroring: HorzMirroring,
			prgram:    prgRAMUnit,
		},
		{
			name:   "mmc1 vertical chr ram",
			hdr:    [16]byte{4: 8, 5: 0, 6: 0x11},
			body:   8 * prgUnit,
			mapper: 1,
			prg:    8 * prgUnit, chr: 0,
			mirroring: VertMirroring,
			prgram:    prgRAMUnit,
			chrram:    true,
		},
		{
			name:   "mmc3 four screen",
			hdr:    [16]byte{4: 1, 5: 1, 6: 0x48, 8: 4},
			body:   prgUnit + chrUnit,
			mapper: 4,
			prg:    prgUnit, chr: chrUnit,
			mirroring: FourScreen,
			prgram:    4 * prgRAMUnit,
		},
		{
			name:   "high nibble and trainer",
			hdr:    [16]byte{4: 1, 6: 0x74, 7: 0x40},
			body:   trainerSize + prgUnit,
			mapper: 0x47,
			prg:    prgUnit,
			prgram: prgRAMUnit,
			chrram: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom, err := Decode(makeImage(tt.hdr, tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if got := rom.Mapper(); got != tt.mapper {
				t.Errorf("got Mapper() = %d, want %d", got, tt.mapper)
			}
			if got := rom.Mirroring(); got != tt.mirroring {
				t.Errorf("got Mirroring() = %s, want %s", got, tt.mirroring)
			}
			if len(rom.PRG) != tt.prg || len(rom.CHR) != tt.chr {
				t.Errorf("got PRG/CHR sizes = %d/%d, want %d/%d", len(rom.PRG), len(rom.CHR), tt.prg, tt.chr)
			}
			if got := rom.PRGRAMSize(); got != tt.prgram {
				t.Errorf("got PRGRAMSize() = %d, want %d", got, tt.prgram)
			}
			if got := rom.HasCHRRAM(); got != tt.chrram {
				t.Errorf("got HasCHRRAM() = %t, want %t", got, tt.chrram)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("NES")); err == nil {
		t.Errorf("want error for short header")
	}

	bad := makeImage([16]byte{4: 1}, prgUnit)
	bad[0] = 'X'
	if _, err := Decode(bad); !errors.Is(err, ErrMagic) {
		t.Errorf("got err = %v, want %v", err, ErrMagic)
	}

	short := makeImage([16]byte{4: 2}, prgUnit)
	if _, err := Decode(short); err == nil || !strings.Contains(err.Error(), "PRG") {
		t.Errorf("got err = %v, want incomplete PRG section", err)
	}
}

func TestNewRomBytes(t *testing.T) {
	prg := bytes.Repeat([]byte{0xEA}, prgUnit)
	chr := bytes.Repeat([]byte{0x55}, chrUnit)
	rom := NewRom(4, VertMirroring, prg, chr)

	decoded, err := Decode(rom.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Mapper() != 4 || decoded.Mirroring() != VertMirroring {
		t.Errorf("got mapper %d mirroring %s, want 4 VertMirroring", decoded.Mapper(), decoded.Mirroring())
	}
	if diff := cmp.Diff(prg, decoded.PRG); diff != "" {
		t.Errorf("PRG mismatch (-want +got):\n%s", diff)
	}
}

func TestRomOpen(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "other")
	rom, err := Open(filepath.Join(dir, "nestest.nes"), "")
	if err != nil {
		t.Fatal(err)
	}
	if rom.Mapper() != 0 {
		t.Errorf("got Mapper() = %d, want 0", rom.Mapper())
	}
	if len(rom.PRG) != prgUnit {
		t.Errorf("got len(PRG) = %d, want %d", len(rom.PRG), prgUnit)
	}
}
