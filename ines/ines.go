// Package ines decodes cartridge images in the iNES file format, used for the
// distribution of NES binary programs, and applies IPS patches to them.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const Magic = "NES\x1a"

const (
	headerSize  = 16
	trainerSize = 512
	prgUnit     = 16 * 1024
	chrUnit     = 8 * 1024
	prgRAMUnit  = 8 * 1024
)

var ErrMagic = errors.New("invalid iNES magic number")

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRG     []byte // PRG ROM data (multiple of 16KB)
	CHR     []byte // CHR ROM data (multiple of 8KB), empty when the cartridge uses CHR RAM
}

// Open loads a rom from file, optionally applying the IPS patch at patchPath
// (when not empty) to the whole image before decoding it.
func Open(path, patchPath string) (*Rom, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if patchPath != "" {
		f, err := os.Open(patchPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if buf, err = ApplyIPS(buf, f); err != nil {
			return nil, fmt.Errorf("patch %s: %w", patchPath, err)
		}
	}

	return Decode(buf)
}

// Decode decodes an iNES image held in memory. The returned Rom slices
// reference buf.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if err := rom.decode(buf); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := rom.decode(buf); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

func (rom *Rom) decode(buf []byte) error {
	if err := rom.header.decode(buf); err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	off := headerSize

	if rom.HasTrainer() {
		if len(buf) < off+trainerSize {
			return fmt.Errorf("incomplete TRAINER section")
		}
		rom.Trainer = buf[off : off+trainerSize]
		off += trainerSize
	}

	if len(buf) < off+rom.prgsz {
		return fmt.Errorf("incomplete PRG section")
	}
	rom.PRG = buf[off : off+rom.prgsz]
	off += rom.prgsz

	if len(buf) < off+rom.chrsz {
		return fmt.Errorf("incomplete CHR section")
	}
	rom.CHR = buf[off : off+rom.chrsz]
	return nil
}

// NewRom builds a Rom from its parts, filling the header accordingly.
func NewRom(mapper uint16, m NTMirroring, prg, chr []byte) *Rom {
	rom := &Rom{PRG: prg, CHR: chr}
	rom.raw[4] = uint8(len(prg) / prgUnit)
	rom.raw[5] = uint8(len(chr) / chrUnit)
	rom.raw[6] = uint8(mapper&0x0F) << 4
	rom.raw[7] = uint8(mapper & 0xF0)
	switch m {
	case VertMirroring:
		rom.raw[6] |= 0x01
	case FourScreen:
		rom.raw[6] |= 0x08
	}
	rom.prgsz = len(prg)
	rom.chrsz = len(chr)
	return rom
}

// Bytes returns the full iNES image of rom.
func (rom *Rom) Bytes() []byte {
	buf := make([]byte, 0, headerSize+len(rom.Trainer)+len(rom.PRG)+len(rom.CHR))
	buf = append(buf, Magic...)
	buf = append(buf, rom.raw[4:]...)
	buf = append(buf, rom.Trainer...)
	buf = append(buf, rom.PRG...)
	return append(buf, rom.CHR...)
}

type header struct {
	raw   [headerSize]byte
	prgsz int
	chrsz int
}

func (hdr *header) decode(p []byte) error {
	if len(p) < headerSize {
		return fmt.Errorf("too small, needs %d bytes", headerSize)
	}
	if string(p[:4]) != Magic {
		return ErrMagic
	}
	copy(hdr.raw[:], p[:headerSize])

	hdr.prgsz = int(hdr.raw[4]) * prgUnit
	hdr.chrsz = int(hdr.raw[5]) * chrUnit
	return nil
}

// Mapper returns the iNES mapper number.
func (hdr *header) Mapper() uint16 {
	return uint16(hdr.raw[6]>>4) | uint16(hdr.raw[7]&0xF0)
}

// Mirroring returns the nametable mirroring wired on the cartridge board.
func (hdr *header) Mirroring() NTMirroring {
	switch {
	case hdr.raw[6]&0x08 != 0:
		return FourScreen
	case hdr.raw[6]&0x01 != 0:
		return VertMirroring
	}
	return HorzMirroring
}

// HasPersistent indicates the presence of battery-backed PRG RAM.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasCHRRAM reports whether the cartridge provides CHR RAM instead of CHR ROM.
func (hdr *header) HasCHRRAM() bool {
	return hdr.raw[5] == 0
}

// PRGRAMSize returns the size of PRG RAM in bytes, 8KB when unspecified.
func (hdr *header) PRGRAMSize() int {
	if hdr.raw[8] == 0 {
		return prgRAMUnit
	}
	return int(hdr.raw[8]) * prgRAMUnit
}

// IsNES20 reports whether the header uses the NES 2.0 extension.
func (hdr *header) IsNES20() bool {
	return hdr.raw[7]&0x0C == 0x08
}

// Infos writes a human readable description of the rom header.
func (rom *Rom) Infos(w io.Writer) {
	fmt.Fprintf(w, "PRG ROM:    %d x 16KB\n", rom.raw[4])
	if rom.HasCHRRAM() {
		fmt.Fprintf(w, "CHR RAM:    8KB\n")
	} else {
		fmt.Fprintf(w, "CHR ROM:    %d x 8KB\n", rom.raw[5])
	}
	fmt.Fprintf(w, "PRG RAM:    %dKB\n", rom.PRGRAMSize()/1024)
	fmt.Fprintf(w, "Mapper:     %d\n", rom.Mapper())
	fmt.Fprintf(w, "Mirroring:  %s\n", rom.Mirroring())
	fmt.Fprintf(w, "Battery:    %t\n", rom.HasPersistent())
	fmt.Fprintf(w, "Trainer:    %t\n", rom.HasTrainer())
	fmt.Fprintf(w, "NES 2.0:    %t\n", rom.IsNES20())
}
