// Package atcli is interactive console to Parani radio, for field setup and diagnostics.
package atcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/btgate/cmd/btgate/subcmd"
	"github.com/temoto/btgate/hardware/parani"
	"github.com/temoto/btgate/hardware/serial"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/helpers/cli"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/wire"
	"github.com/temoto/btgate/log2"
)

const usage = `syntax: commands separated by whitespace
- setup          write S registers, clear input
- inq            run one inquiry cycle, print detections
- clear          discard buffered serial input
- frame ID       print frame for 12 byte identifier ID at current time
- log=yes|no     debug logging
- help           this text
anything else is sent to radio as AT command, e.g. AT+BTINFO?
`

var Mod = subcmd.Mod{Name: "at-cli", Usage: "interactive Parani AT console", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Annotate(err, "init")
	}
	defer g.Close()

	sc := config.Parani
	port, err := serial.Open(sc.Device, sc.Baud, g.Log, serial.Stat{})
	if err != nil {
		return errors.Annotatef(err, "parani device=%s", sc.Device)
	}
	defer port.Close()
	radio := parani.New(port, g.Log)
	radio.Timeout = config.ParaniTimeout()

	c := &console{
		radio: radio,
		log:   g.Log,
		asset: uint16(config.AssetNumber),
		out:   os.Stdout,
		now:   time.Now,
	}
	cli.MainLoop("btgate-at", c.exec, newCompleter())
	return nil
}

type console struct {
	radio *parani.Parani
	log   *log2.Log
	asset uint16
	out   io.Writer
	now   func() time.Time
}

func (c *console) exec(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	switch words[0] {
	case "help":
		fmt.Fprint(c.out, usage)
	case "setup":
		c.radio.Setup()
		fmt.Fprintln(c.out, "ok")
	case "inq":
		ds, err := c.radio.Inquiry()
		if err != nil {
			fmt.Fprintln(c.out, errors.ErrorStack(err))
			return
		}
		for _, d := range ds {
			fmt.Fprintln(c.out, d.String())
		}
		fmt.Fprintf(c.out, "found=%d\n", len(ds))
	case "clear":
		if err := c.radio.Port.Clear(); err != nil {
			fmt.Fprintln(c.out, errors.ErrorStack(err))
		}
	case "frame":
		if len(words) != 2 {
			fmt.Fprintln(c.out, "usage: frame ID")
			return
		}
		b, err := wire.Encode(c.asset, []byte(words[1]), c.now(), false)
		if err != nil {
			fmt.Fprintln(c.out, errors.ErrorStack(err))
			return
		}
		fmt.Fprintln(c.out, helpers.HexSpaces(b))
	case "log=yes":
		c.log.SetLevel(log2.LDebug)
	case "log=no":
		c.log.SetLevel(log2.LInfo)
	default:
		lines, err := c.radio.Command(line)
		for _, l := range lines {
			fmt.Fprintf(c.out, "< %q\n", l)
		}
		if err != nil {
			fmt.Fprintln(c.out, errors.ErrorStack(err))
		}
	}
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "help"},
		{Text: "setup", Description: "write S registers"},
		{Text: "inq", Description: "one inquiry cycle"},
		{Text: "clear", Description: "discard serial input"},
		{Text: "frame", Description: "encode frame for identifier"},
		{Text: "log=yes", Description: "debug logging on"},
		{Text: "log=no", Description: "debug logging off"},
		{Text: strings.TrimSuffix(parani.CmdCancel, "\r")},
		{Text: strings.TrimSuffix(parani.CmdInquiry, "\r")},
	}

	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}
