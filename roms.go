package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-faster/jx"

	"nescore/hw/mappers"
	"nescore/ines"
)

func romInfosMain(w io.Writer, args RomInfos) error {
	rom, err := ines.Open(args.RomPath, "")
	if err != nil {
		return err
	}

	name := "unknown"
	desc, supported := mappers.All[rom.Mapper()]
	if supported {
		name = desc.Name
	}

	if !args.JSON {
		rom.Infos(w)
		fmt.Fprintf(w, "Board:      %s (supported: %t)\n", name, supported)
		return nil
	}

	var e jx.Encoder
	e.SetIdent(2)
	e.Obj(func(e *jx.Encoder) {
		e.Field("prg_rom", func(e *jx.Encoder) { e.Int(len(rom.PRG)) })
		e.Field("chr_rom", func(e *jx.Encoder) { e.Int(len(rom.CHR)) })
		e.Field("chr_ram", func(e *jx.Encoder) { e.Bool(rom.HasCHRRAM()) })
		e.Field("prg_ram", func(e *jx.Encoder) { e.Int(rom.PRGRAMSize()) })
		e.Field("mapper", func(e *jx.Encoder) { e.UInt16(rom.Mapper()) })
		e.Field("board", func(e *jx.Encoder) { e.Str(name) })
		e.Field("supported", func(e *jx.Encoder) { e.Bool(supported) })
		e.Field("mirroring", func(e *jx.Encoder) { e.Str(rom.Mirroring().String()) })
		e.Field("battery", func(e *jx.Encoder) { e.Bool(rom.HasPersistent()) })
		e.Field("trainer", func(e *jx.Encoder) { e.Bool(rom.HasTrainer()) })
		e.Field("nes20", func(e *jx.Encoder) { e.Bool(rom.IsNES20()) })
	})
	_, err = fmt.Fprintln(w, e.String())
	return err
}

func patchMain(args Patch) error {
	img, err := os.ReadFile(args.RomPath)
	if err != nil {
		return err
	}
	f, err := os.Open(args.IPSPath)
	if err != nil {
		return err
	}
	defer f.Close()

	patched, err := ines.ApplyIPS(img, f)
	if err != nil {
		return err
	}
	// Refuse to write something that isn't a ROM anymore.
	if _, err := ines.Decode(patched); err != nil {
		return fmt.Errorf("patched image: %w", err)
	}
	if bytes.Equal(img, patched) {
		fmt.Fprintln(os.Stderr, "warning: the patch didn't change the ROM")
	}
	return os.WriteFile(args.OutPath, patched, 0644)
}
