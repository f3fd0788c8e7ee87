// Package metrics counts what sources do: detections, drops, frames sent.
// All methods are safe to call on nil *Metrics, tests and disabled config pass nil.
package metrics

import (
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/log2"
)

const namespace = "btgate"

// Drop reasons
const (
	ReasonIdentifier = "identifier"
	ReasonTime       = "time"
	ReasonEncode     = "encode"
)

type Metrics struct {
	Registry *prometheus.Registry

	detected      *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	sent          *prometheus.CounterVec
	sendErrors    *prometheus.CounterVec
	lastSent      *prometheus.GaugeVec
	inquiryCycles prometheus.Counter
	logErrors     prometheus.Counter
	serialRx      *prometheus.CounterVec
	serialTx      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Identifiers reported by devices, before validation.",
		}, []string{"source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Detections that never reached the wire.",
		}, []string{"source", "reason"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Datagrams written to telemetry server.",
		}, []string{"source"}),
		sendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Datagram write failures.",
		}, []string{"source"}),
		lastSent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sent_timestamp_seconds",
			Help:      "Unix time of last successful send.",
		}, []string{"source"}),
		inquiryCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiry_cycles_total",
			Help:      "Completed radio inquiry cycles.",
		}),
		logErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_errors_total",
			Help:      "Errors written to log.",
		}),
		serialRx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_rx_bytes_total",
			Help:      "Bytes read from serial device.",
		}, []string{"device"}),
		serialTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_tx_bytes_total",
			Help:      "Bytes written to serial device.",
		}, []string{"device"}),
	}
	m.Registry.MustRegister(
		m.detected, m.dropped, m.sent, m.sendErrors, m.lastSent,
		m.inquiryCycles, m.logErrors, m.serialRx, m.serialTx,
	)
	return m
}

func (m *Metrics) Detected(source string) {
	if m == nil {
		return
	}
	m.detected.WithLabelValues(source).Inc()
}

func (m *Metrics) Drop(source, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) Sent(source string, at time.Time) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(source).Inc()
	m.lastSent.WithLabelValues(source).Set(float64(at.Unix()))
}

func (m *Metrics) SendError(source string) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) InquiryCycle() {
	if m == nil {
		return
	}
	m.inquiryCycles.Inc()
}

// LogError fits log2.ErrorFunc.
func (m *Metrics) LogError(error) {
	if m == nil {
		return
	}
	m.logErrors.Inc()
}

// SerialRx returns nil when m is nil, serial port then skips counting.
func (m *Metrics) SerialRx(device string) helpers.Adder {
	if m == nil {
		return nil
	}
	return m.serialRx.WithLabelValues(device)
}

func (m *Metrics) SerialTx(device string) helpers.Adder {
	if m == nil {
		return nil
	}
	return m.serialTx.WithLabelValues(device)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve starts exporter in background. Listen error is returned immediately,
// later Serve errors are logged. Returned server Addr is actual listen address.
func (m *Metrics) Serve(listen string, log *log2.Log) (*http.Server, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, errors.Annotatef(err, "metrics listen=%s", listen)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics serve err=%v", err)
		}
	}()
	log.Infof("metrics listen=%s", srv.Addr)
	return srv, nil
}
