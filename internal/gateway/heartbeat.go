package gateway

import (
	"context"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/internal/metrics"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/internal/wire"
	"github.com/temoto/btgate/log2"
)

// Heartbeat tells server the gateway is alive, with blank identifier.
type Heartbeat struct {
	emitter
	Interval time.Duration
	Now      func() time.Time

	ticks <-chan time.Time // nil means ticker with Interval
}

func NewHeartbeat(asset uint16, interval time.Duration, sender Sender, log *log2.Log, m *metrics.Metrics) *Heartbeat {
	return &Heartbeat{
		emitter: emitter{
			kind:    types.SourceHeartbeat,
			asset:   asset,
			log:     log,
			metrics: m,
			sender:  sender,
		},
		Interval: interval,
		Now:      time.Now,
	}
}

func OpenHeartbeat(ctx context.Context, cfg state.Config, log *log2.Log, m *metrics.Metrics) (*Heartbeat, error) {
	sender, err := dial(ctx, &cfg, types.SourceHeartbeat, log)
	if err != nil {
		return nil, err
	}
	return NewHeartbeat(uint16(cfg.AssetNumber), cfg.HeartbeatInterval(), sender, log, m), nil
}

// Run sends first frame right away, then one per Interval until stopped.
func (h *Heartbeat) Run(a *alive.Alive) error {
	ticks := h.ticks
	if ticks == nil {
		tick := time.NewTicker(h.Interval)
		defer tick.Stop()
		ticks = tick.C
	}
	for a.IsRunning() {
		h.beat()
		select {
		case <-ticks:
		case <-a.StopChan():
			return nil
		}
	}
	return nil
}

func (h *Heartbeat) beat() {
	if err := h.emit(wire.BlankIdentifier, h.Now(), false); err != nil {
		h.log.Errorf("heartbeat err=%v", err)
	}
}

func (h *Heartbeat) Close() error { return h.close(nil) }
