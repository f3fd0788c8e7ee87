package gateway

import (
	"context"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/hardware/uconnect"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/internal/metrics"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/internal/wire"
	"github.com/temoto/btgate/log2"
)

// Passive forwards what u-connect sensor pushes.
type Passive struct {
	emitter
	Reader  *uconnect.Reader
	backoff helpers.Backoff
}

func NewPassive(asset uint16, reader *uconnect.Reader, sender Sender, log *log2.Log, m *metrics.Metrics) *Passive {
	return &Passive{
		emitter: emitter{
			kind:    types.SourcePassive,
			asset:   asset,
			log:     log,
			metrics: m,
			sender:  sender,
		},
		Reader:  reader,
		backoff: helpers.Backoff{Min: 100 * time.Millisecond, Max: 10 * time.Second, K: 2},
	}
}

func OpenPassive(ctx context.Context, cfg state.Config, log *log2.Log, m *metrics.Metrics) (*Passive, error) {
	port, err := openSerial(cfg.Uconnect, types.SourcePassive, log, m)
	if err != nil {
		return nil, err
	}
	sender, err := dial(ctx, &cfg, types.SourcePassive, log)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	reader := uconnect.New(port, log)
	reader.Timeout = cfg.UconnectTimeout()
	return NewPassive(uint16(cfg.AssetNumber), reader, sender, log, m), nil
}

// Run never fails: silence, garbage and read errors all mean no event this cycle.
// Repeated read errors (unplugged device returns them instantly) are paced by backoff.
func (p *Passive) Run(a *alive.Alive) error {
	for a.IsRunning() {
		if delay := p.cycle(); delay != 0 {
			select {
			case <-time.After(delay):
			case <-a.StopChan():
			}
		}
	}
	return nil
}

func (p *Passive) cycle() time.Duration {
	d, ok, err := p.Reader.ReadEvent()
	if err != nil {
		return p.backoff.Failure()
	}
	p.backoff.Reset()
	if !ok {
		return 0
	}
	p.metrics.Detected(p.kind.String())
	if len(d.Identifier) != wire.IdentifierSize {
		p.metrics.Drop(p.kind.String(), metrics.ReasonIdentifier)
		p.log.Debugf("passive drop %s", d.String())
		return 0
	}
	if err := p.emit(d.Identifier, d.ObservedAt, false); err != nil {
		p.log.Debugf("passive drop %s err=%v", d.String(), err)
	}
	return 0
}

func (p *Passive) Close() error { return p.close(p.Reader.Port) }
