package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/emu/rpc"
)

func main() {
	ctx, cli := parseArgs(os.Args[1:])

	cfg := emu.LoadConfigOrDefault()
	cfg.Log.Apply()

	switch strings.Fields(ctx.Command())[0] {
	case "run":
		emuMain(cli.Run, cfg)
	case "rom-infos":
		checkf(romInfosMain(os.Stdout, cli.RomInfos), "failed to show rom infos")
	case "patch":
		checkf(patchMain(cli.Patch), "failed to patch rom")
	case "config":
		checkf(configMain(os.Stdout, cli.Config, cfg), "config")
	case "remote":
		checkf(remoteMain(cli.Remote), "remote command %q", cli.Remote.Command)
	case "version":
		fmt.Println("nescore", version())
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}

func configMain(w io.Writer, args Config, cfg emu.Config) error {
	if args.Reset {
		cfg = emu.DefaultConfig()
		if err := emu.SaveConfig(cfg); err != nil {
			return err
		}
		log.ModEmu.InfoZ("config reset").String("path", emu.ConfigPath()).End()
	}
	fmt.Fprintf(w, "# %s\n", emu.ConfigPath())
	return emu.EncodeConfig(w, cfg)
}

func remoteMain(args Remote) error {
	client, err := rpc.NewClient(args.Addr)
	if err != nil {
		return err
	}
	defer client.Close()

	switch args.Command {
	case "reset":
		return client.Reset()
	case "restart":
		return client.Restart()
	case "pause":
		return client.SetPause(true)
	case "resume":
		return client.SetPause(false)
	case "stop":
		return client.Stop()
	case "save":
		return client.SaveSnapshot()
	case "load":
		return client.LoadSnapshot()
	}
	return fmt.Errorf("unknown command %q", args.Command)
}
