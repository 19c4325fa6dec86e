package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nescore/emu/log"
)

func TestParseArgsRun(t *testing.T) {
	defer log.DisableDebugModules(log.ModuleMaskAll)

	rom := writeRom(t, 0)
	trace := filepath.Join(t.TempDir(), "trace.log")
	ctx, cli := parseArgs([]string{"--log", "cpu,ppu", "run", rom, "--frames", "3", "--trace", trace})

	if cmd := strings.Fields(ctx.Command())[0]; cmd != "run" {
		t.Errorf("command = %q, want run", cmd)
	}
	if cli.Run.Frames != 3 {
		t.Errorf("frames = %d, want 3", cli.Run.Frames)
	}
	if cli.Run.RunAhead != -1 {
		t.Errorf("run-ahead = %d, want -1 (unset)", cli.Run.RunAhead)
	}
	if !log.ModCPU.Enabled(log.DebugLevel) || !log.ModPPU.Enabled(log.DebugLevel) {
		t.Errorf("--log cpu,ppu didn't enable the modules")
	}
	if log.ModMapper.Enabled(log.DebugLevel) {
		t.Errorf("mapper module enabled")
	}

	if cli.Run.Trace == nil {
		t.Fatalf("trace output not set")
	}
	if _, err := cli.Run.Trace.Write([]byte("C000\n")); err != nil {
		t.Fatal(err)
	}
	if err := cli.Run.Trace.Close(); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(trace)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "C000\n" {
		t.Errorf("trace file = %q, want %q", buf, "C000\n")
	}
}

func TestParseArgsRomInfos(t *testing.T) {
	rom := writeRom(t, 0)
	ctx, cli := parseArgs([]string{"rom-infos", "--json", rom})

	if cmd := strings.Fields(ctx.Command())[0]; cmd != "rom-infos" {
		t.Errorf("command = %q, want rom-infos", cmd)
	}
	if !cli.RomInfos.JSON || cli.RomInfos.RomPath != rom {
		t.Errorf("got %+v, want JSON output of %s", cli.RomInfos, rom)
	}
}

func TestOutfileStdout(t *testing.T) {
	_, cli := parseArgs([]string{"run", writeRom(t, 0), "--trace", "stdout"})
	if cli.Run.Trace.Writer != os.Stdout {
		t.Errorf("trace writer isn't stdout")
	}
	if err := cli.Run.Trace.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
