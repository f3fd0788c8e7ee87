package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/btgate/cmd/btgate/atcli"
	"github.com/temoto/btgate/cmd/btgate/run"
	"github.com/temoto/btgate/cmd/btgate/subcmd"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)

var modules []subcmd.Mod

func init() {
	modules = []subcmd.Mod{
		run.Mod,
		run.HeartbeatMod,
		run.InquiryMod,
		run.PassiveMod,
		atcli.Mod,
		{Name: "version", Usage: "print build version", NoConfig: true, Main: versionMain},
		{Name: "help", Usage: "this text", NoConfig: true, Main: helpMain},
	}
}

func main() {
	flags := flag.NewFlagSet("btgate", flag.ExitOnError)
	configPath := flags.String("config", state.DefaultConfigPath, "")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: btgate [-config=path] [command]\n%s", usage())
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cmdName := flags.Arg(0)
	if cmdName == "" {
		cmdName = run.Mod.Name
	}
	mod, err := subcmd.Parse(cmdName, modules)
	if err != nil {
		log.Fatal(err)
	}

	if subcmd.SdNotify("STATUS=start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion

	var config *state.Config
	if !mod.NoConfig {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	}
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func versionMain(ctx context.Context, _ *state.Config) error {
	fmt.Printf("btgate %s\n", state.GetGlobal(ctx).BuildVersion)
	return nil
}

func helpMain(context.Context, *state.Config) error {
	fmt.Print(usage())
	return nil
}

func usage() string {
	var b strings.Builder
	b.WriteString("Commands (default run):\n")
	for _, m := range modules {
		fmt.Fprintf(&b, "  %-10s %s\n", m.Name, m.Usage)
	}
	return b.String()
}
