// Support sub-commands in btgate application.
// It's simple but fine so far.
package subcmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/log2"
)

type Mod struct {
	Name  string
	Usage string
	Main  func(context.Context, *state.Config) error
	// version and help must work without config file
	NoConfig bool
}

func Parse(command string, modules []Mod) (*Mod, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}

	var found *Mod
	for i := range modules {
		m := &modules[i]
		if m.Name == "" {
			panic(fmt.Sprintf("code error Name='' module=%#v", m))
		}
		if command == m.Name {
			found = m
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("unknown command='%s'", command)
	}
	return found, nil
}

func SdNotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}

// Watchdog pings systemd at half of WatchdogSec until a is stopped.
// Returns immediately when watchdog is not configured.
func Watchdog(a *alive.Alive, log *log2.Log) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.Errorf("sd watchdog err=%v", err)
		return
	}
	if interval == 0 {
		return
	}
	tick := time.NewTicker(interval / 2)
	defer tick.Stop()
	log.Debugf("sd watchdog interval=%v", interval)
	for {
		select {
		case <-tick.C:
			SdNotify(daemon.SdNotifyWatchdog)
		case <-a.StopChan():
			return
		}
	}
}
