// Package run holds daemon sub-commands: all enabled sources or just one kind.
package run

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/btgate/cmd/btgate/subcmd"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/internal/gateway"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/types"
)

const StopTimeout = 20 * time.Second

var Mod = subcmd.Mod{Name: "run", Usage: "all sources enabled in config", Main: func(ctx context.Context, config *state.Config) error {
	return Main(ctx, config, nil)
}}
var HeartbeatMod = only("heartbeat", types.SourceHeartbeat)
var InquiryMod = only("inquiry", types.SourceInquiry)
var PassiveMod = only("passive", types.SourcePassive)

func only(name string, kind types.SourceKind) subcmd.Mod {
	return subcmd.Mod{
		Name:  name,
		Usage: "only " + kind.String() + " source, ignores disable flag in config",
		Main: func(ctx context.Context, config *state.Config) error {
			return Main(ctx, config, &kind)
		},
	}
}

// Main runs sources until signal or first fatal source error.
// kind=nil means every source enabled in config.
func Main(ctx context.Context, config *state.Config, kind *types.SourceKind) error {
	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Annotate(err, "init")
	}
	defer g.Close()
	g.HandleSignals()

	cfg := *config
	if kind != nil {
		cfg.Heartbeat.Disable = *kind != types.SourceHeartbeat
		cfg.Parani.Disable = *kind != types.SourceInquiry
		cfg.Uconnect.Disable = *kind != types.SourcePassive
	}
	sources, err := gateway.Open(ctx, cfg, g.Log, g.Metrics)
	if err != nil {
		return errors.Annotate(err, "open sources")
	}

	go subcmd.Watchdog(g.Alive, g.Log)
	subcmd.SdNotify(daemon.SdNotifyReady)
	err = Serve(g, sources)
	subcmd.SdNotify(daemon.SdNotifyStopping)
	return err
}

// Serve starts each source on its own goroutine under g.Alive.
// First source error stops all others and is returned.
// Sources are closed before return, even those stuck in blocking read past StopTimeout.
func Serve(g *state.Global, sources []gateway.Source) error {
	var fatal helpers.AtomicError
	for _, s := range sources {
		s := s
		if !g.Alive.Add(1) {
			break
		}
		go func() {
			defer g.Alive.Done()
			g.Log.Infof("source=%s start", s.Kind())
			err := s.Run(g.Alive)
			if err == nil {
				g.Log.Infof("source=%s stop", s.Kind())
				return
			}
			err = errors.Annotatef(err, "source=%s", s.Kind())
			if _, set := fatal.StoreOnce(err); !set {
				g.Error(err, "stopping")
			}
			g.Alive.Stop()
		}()
	}

	<-g.Alive.StopChan()
	if !g.StopWait(StopTimeout) {
		g.Log.Errorf("sources did not stop in %v", StopTimeout)
	}
	for _, s := range sources {
		if err := s.Close(); err != nil {
			g.Log.Debugf("source=%s close err=%v", s.Kind(), err)
		}
	}
	err, _ := fatal.Load()
	return err
}
