package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"nescore/ines"
)

func writeRom(tb testing.TB, mapper uint16) string {
	tb.Helper()
	rom := ines.NewRom(mapper, ines.HorzMirroring, make([]byte, 0x8000), make([]byte, 0x2000))
	path := filepath.Join(tb.TempDir(), "game.nes")
	if err := os.WriteFile(path, rom.Bytes(), 0644); err != nil {
		tb.Fatal(err)
	}
	return path
}

func TestRomInfosJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := romInfosMain(&buf, RomInfos{RomPath: writeRom(t, 66), JSON: true}); err != nil {
		t.Fatal(err)
	}

	got := map[string]string{}
	err := jx.DecodeBytes(buf.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		got[key] = raw.String()
		return nil
	})
	if err != nil {
		t.Fatalf("invalid json %s: %v", buf.String(), err)
	}

	want := map[string]string{
		"prg_rom":   "32768",
		"chr_rom":   "8192",
		"chr_ram":   "false",
		"prg_ram":   "8192",
		"mapper":    "66",
		"board":     `"unknown"`,
		"supported": "false",
		"mirroring": `"` + ines.HorzMirroring.String() + `"`,
		"battery":   "false",
		"trainer":   "false",
		"nes20":     "false",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rom infos mismatch (-want +got):\n%s", diff)
	}
}

func TestRomInfosText(t *testing.T) {
	var buf bytes.Buffer
	if err := romInfosMain(&buf, RomInfos{RomPath: writeRom(t, 2)}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(supported: true)") {
		t.Errorf("UxROM reported as unsupported:\n%s", buf.String())
	}
}

func TestPatch(t *testing.T) {
	rompath := writeRom(t, 0)
	dir := t.TempDir()

	// Write $EA at the first PRG byte, just after the header.
	ips := []byte("PATCH\x00\x00\x10\x00\x01\xEAEOF")
	ipspath := filepath.Join(dir, "fix.ips")
	if err := os.WriteFile(ipspath, ips, 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "patched.nes")
	if err := patchMain(Patch{RomPath: rompath, IPSPath: ipspath, OutPath: out}); err != nil {
		t.Fatal(err)
	}

	rom, err := ines.Open(out, "")
	if err != nil {
		t.Fatal(err)
	}
	if rom.PRG[0] != 0xEA {
		t.Errorf("PRG[0] = $%02X, want $EA", rom.PRG[0])
	}
}

func TestPatchBreakingHeader(t *testing.T) {
	rompath := writeRom(t, 0)
	dir := t.TempDir()

	ips := []byte("PATCH\x00\x00\x00\x00\x01XEOF")
	ipspath := filepath.Join(dir, "bad.ips")
	if err := os.WriteFile(ipspath, ips, 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "patched.nes")
	if err := patchMain(Patch{RomPath: rompath, IPSPath: ipspath, OutPath: out}); err == nil {
		t.Errorf("patch overwriting the magic succeeded")
	}
	if _, err := os.Stat(out); err == nil {
		t.Errorf("output written despite the error")
	}
}
