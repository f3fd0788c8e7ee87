// Package gateway runs detection sources: heartbeat, radio inquiry, passive sensor.
//
// Each source owns its serial port and UDP sender, shares nothing with others.
// Run loops check Alive at the head of every cycle. Run returns only on stop
// or fatal error, which the caller treats as reason to exit.
package gateway

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/btgate/hardware/serial"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/internal/metrics"
	"github.com/temoto/btgate/internal/state"
	"github.com/temoto/btgate/internal/tele"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/internal/wire"
	"github.com/temoto/btgate/log2"
)

type Sender interface {
	Send(b []byte) error
	Close() error
}

type Source interface {
	Kind() types.SourceKind
	Run(a *alive.Alive) error
	Close() error
}

var _ Sender = &tele.Sender{}

// emitter frames detections and sends them. Send errors never stop the caller.
type emitter struct {
	kind    types.SourceKind
	asset   uint16
	log     *log2.Log
	metrics *metrics.Metrics
	sender  Sender
}

func (e *emitter) Kind() types.SourceKind { return e.kind }

// emit returns encode error, so caller decides how loud the drop is.
// Send error is logged here and not returned.
func (e *emitter) emit(id []byte, at time.Time, beacon bool) error {
	b, err := wire.Encode(e.asset, id, at, beacon)
	if err != nil {
		e.metrics.Drop(e.kind.String(), dropReason(err))
		return err
	}
	if err = e.sender.Send(b); err != nil {
		e.metrics.SendError(e.kind.String())
		e.log.Errorf("%s send err=%v", e.kind, err)
		return nil
	}
	e.metrics.Sent(e.kind.String(), at)
	return nil
}

func dropReason(err error) string {
	switch errors.Cause(err) {
	case wire.ErrIdentifierLength:
		return metrics.ReasonIdentifier
	case wire.ErrYearRange:
		return metrics.ReasonTime
	}
	return metrics.ReasonEncode
}

// close logs final sender statistics and releases port (may be nil) and sender.
func (e *emitter) close(port serial.Port) error {
	errs := make([]error, 0, 2)
	if port != nil {
		errs = append(errs, port.Close())
	}
	if e.sender != nil {
		if ts, ok := e.sender.(*tele.Sender); ok {
			e.log.Infof("%s sender remote=%s stat=%s", e.kind, ts.Remote(), ts.Stat().String())
		}
		errs = append(errs, e.sender.Close())
	}
	return helpers.FoldErrors(errs)
}

func dial(ctx context.Context, cfg *state.Config, kind types.SourceKind, log *log2.Log) (*tele.Sender, error) {
	s, err := tele.Dial(ctx, cfg.Server.Address, cfg.Server.Port, log)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", kind)
	}
	return s, nil
}

func openSerial(sc state.SerialConfig, kind types.SourceKind, log *log2.Log, m *metrics.Metrics) (*serial.FilePort, error) {
	port, err := serial.Open(sc.Device, sc.Baud, log, serial.Stat{
		Rx: m.SerialRx(sc.Device),
		Tx: m.SerialTx(sc.Device),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "%s", kind)
	}
	return port, nil
}

// Open builds every source enabled in config. On error, already opened sources are closed.
func Open(ctx context.Context, cfg state.Config, log *log2.Log, m *metrics.Metrics) ([]Source, error) {
	sources := make([]Source, 0, 3)
	fail := func(err error) ([]Source, error) {
		for _, s := range sources {
			_ = s.Close()
		}
		return nil, err
	}
	if !cfg.Heartbeat.Disable {
		s, err := OpenHeartbeat(ctx, cfg, log, m)
		if err != nil {
			return fail(err)
		}
		sources = append(sources, s)
	}
	if !cfg.Parani.Disable {
		s, err := OpenInquiry(ctx, cfg, log, m)
		if err != nil {
			return fail(err)
		}
		sources = append(sources, s)
	}
	if !cfg.Uconnect.Disable {
		s, err := OpenPassive(ctx, cfg, log, m)
		if err != nil {
			return fail(err)
		}
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		return nil, errors.NotValidf("config all sources disabled")
	}
	return sources, nil
}
