package state

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/internal/metrics"
	"github.com/temoto/btgate/log2"
)

// Global is process wide run state. Sources get Config copy and never touch Global.
type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Metrics      *metrics.Metrics

	metricsServer *http.Server
	syslog        *log2.Syslog
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive:   alive.NewAlive(),
		Log:     log,
		Metrics: metrics.New(),
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, ContextKey, g)

	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)
	if g.BuildVersion == "unknown" {
		g.Log.Errorf(`build version is not set, use -ldflags "-X main.BuildVersion=..."`)
	}

	level, err := log2.ParseLevel(cfg.Log.Level)
	if err != nil {
		return errors.Annotate(err, "config log.level")
	}
	g.Log.SetLevel(level)

	if cfg.Log.Syslog != "" {
		w, err := log2.DialSyslog(cfg.Log.Syslog, "btgate")
		if err != nil {
			return errors.Annotate(err, "log syslog")
		}
		g.syslog = w
		g.Log.SetSyslog(w)
	}

	// Metrics.LogError never logs, so hook can't recurse
	g.Log.SetErrorFunc(g.Metrics.LogError)

	if cfg.Metrics.Listen != "" {
		srv, err := g.Metrics.Serve(cfg.Metrics.Listen, g.Log)
		if err != nil {
			return errors.Annotate(err, "metrics")
		}
		g.metricsServer = srv
	}

	g.Log.Infof("config %s", cfg.String())
	return nil
}

// HandleSignals stops Alive on SIGINT or SIGTERM.
func (g *Global) HandleSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			g.Log.Infof("signal=%v stopping", sig)
			g.Alive.Stop()
		case <-g.Alive.StopChan():
		}
		signal.Stop(sigs)
	}()
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close releases metrics listener and syslog connection.
func (g *Global) Close() {
	if g.metricsServer != nil {
		_ = g.metricsServer.Close()
	}
	if g.syslog != nil {
		g.Log.SetSyslog(nil)
		_ = g.syslog.Close()
	}
}
