package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Patch    Patch    `cmd:"" help:"Apply an IPS patch to a ROM."`
		Config   Config   `cmd:"" help:"Show or reset the configuration."`
		Remote   Remote   `cmd:"" help:"Control a running emulator."`
		Version  Version  `cmd:"" help:"Show nescore version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Patch      string   `name:"patch" help:"IPS patch to apply to the ROM." type:"existingfile"`
		Palette    string   `name:"palette" help:"Palette file, 64 RGB triplets." type:"existingfile"`
		Monitor    int32    `name:"monitor" help:"Monitor index to use." default:"0"`
		Scale      int      `name:"scale" help:"Window scale factor, overrides the config."`
		Frames     int      `name:"frames" help:"${frames_help}"`
		Screenshot string   `name:"screenshot" help:"Save the last frame as PNG. (headless only)" type:"path"`
		RunAhead   int      `name:"run-ahead" help:"Number of run-ahead frames, overrides the config." default:"-1"`
		CPUProfile string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		Trace      *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		Port       int      `name:"port" help:"Start the RPC server on that port."`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
		JSON    bool   `name:"json" help:"Output JSON."`
	}

	Patch struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
		IPSPath string `arg:"" name:"/path/to/ips" type:"existingfile"`
		OutPath string `arg:"" name:"/path/to/output" type:"path"`
	}

	Config struct {
		Reset bool `name:"reset" help:"Overwrite the config file with the default settings."`
	}

	Remote struct {
		Command string `arg:"" enum:"reset,restart,pause,resume,stop,save,load" help:"One of: ${enum}."`
		Addr    string `name:"addr" help:"Address of the RPC server." default:"localhost:7777"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"rompath_help":    "Path of the iNES ROM to run.",
	"frames_help":     "Run that number of frames without a window, then exit.",
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
}

func parseArgs(args []string) (*kong.Context, *CLI) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("nescore"),
		kong.Description("NES emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	return ctx, &cli
}

const runHelp = `
Log modules:
  --log takes a comma-separated list among:
%s
  or "all" to enable every module, "no" to disable logging entirely.

Hotkeys:
  F1 pause, F2 reset, F3 power cycle, F5 save snapshot, F7 load snapshot,
  Escape quit.
`

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if !strings.HasPrefix(ctx.Command(), "run") {
		return nil
	}

	var sb strings.Builder
	for _, m := range log.ModuleNames() {
		fmt.Fprintf(&sb, "    %s\n", m)
	}
	_, err := fmt.Fprintf(ctx.Stdout, runHelp, sb.String())
	return err
}

type logModMask log.ModuleMask

// Decode enables the debug output of the comma-separated list of log modules.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("log modules", &s); err != nil {
		return err
	}
	mask, off, err := log.ParseModules(strings.Split(s, ","))
	if err != nil {
		return err
	}
	if off {
		log.Disable()
		return nil
	}
	*lm = logModMask(mask)
	log.EnableDebugModules(mask)
	return nil
}

// outfile is an output flag: a file path, or stdout and stderr.
type outfile struct {
	io.Writer
	name string
}

// Decode implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	if err := ctx.Scan.PopValueInto("output", &f.name); err != nil {
		return err
	}

	switch f.name {
	case "stdout":
		f.Writer = os.Stdout
	case "stderr":
		f.Writer = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.Writer = fd
	}
	return nil
}

func (f *outfile) String() string { return f.name }

// Close closes the file, stdout and stderr are left open.
func (f *outfile) Close() error {
	if c, ok := f.Writer.(*os.File); ok && c != os.Stdout && c != os.Stderr {
		return c.Close()
	}
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf("%s: %s", fmt.Sprintf(format, args...), err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
