package gateway

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/hardware/parani"
	"github.com/temoto/btgate/internal/metrics"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/log2"
)

// Inquiry scans for Bluetooth devices with Parani radio.
type Inquiry struct {
	emitter
	Radio *parani.Parani
}

func NewInquiry(asset uint16, radio *parani.Parani, sender Sender, log *log2.Log, m *metrics.Metrics) *Inquiry {
	return &Inquiry{
		emitter: emitter{
			kind:    types.SourceInquiry,
			asset:   asset,
			log:     log,
			metrics: m,
			sender:  sender,
		},
		Radio: radio,
	}
}

func OpenInquiry(ctx context.Context, cfg state.Config, log *log2.Log, m *metrics.Metrics) (*Inquiry, error) {
	port, err := openSerial(cfg.Parani, types.SourceInquiry, log, m)
	if err != nil {
		return nil, err
	}
	sender, err := dial(ctx, &cfg, types.SourceInquiry, log)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	radio := parani.New(port, log)
	radio.Timeout = cfg.ParaniTimeout()
	return NewInquiry(uint16(cfg.AssetNumber), radio, sender, log, m), nil
}

// Run configures radio once, then repeats inquiry cycles back to back,
// radio scan window paces the loop. Read error means device or cable fault and is returned.
func (i *Inquiry) Run(a *alive.Alive) error {
	i.Radio.Setup()
	for a.IsRunning() {
		if err := i.cycle(); err != nil {
			return err
		}
	}
	return nil
}

func (i *Inquiry) cycle() error {
	ds, err := i.Radio.Inquiry()
	if err != nil {
		return errors.Annotate(err, "inquiry")
	}
	i.metrics.InquiryCycle()
	for _, d := range ds {
		i.metrics.Detected(i.kind.String())
		if err := i.emit(d.Identifier, d.ObservedAt, false); err != nil {
			i.log.Errorf("inquiry drop %s err=%v", d.String(), err)
		}
	}
	return nil
}

func (i *Inquiry) Close() error { return i.close(i.Radio.Port) }
