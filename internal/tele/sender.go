// Package tele delivers frames to telemetry server over UDP.
//
// Transport contract:
// - Dial binds ephemeral local port and connects to server once, failure is fatal for caller
// - Send is fire-and-forget: no ack, no retry, error is only reported
// - one Sender per source, not shared
package tele

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/log2"
)

const DefaultDialTimeout = 10 * time.Second

type Sender struct {
	log    *log2.Log
	conn   net.Conn
	remote string
	stat   Stat
}

func Dial(ctx context.Context, host string, port int, log *log2.Log) (*Sender, error) {
	if port <= 0 || port > 65535 {
		return nil, errors.NotValidf("tele port=%d", port)
	}
	remote := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		LocalAddr: &net.UDPAddr{Port: 0},
	}
	conn, err := dialer.DialContext(ctx, "udp", remote)
	if err != nil {
		return nil, errors.Annotatef(err, "tele dial remote=%s", remote)
	}
	log.Debugf("tele dial local=%s remote=%s", conn.LocalAddr(), remote)
	return &Sender{log: log, conn: conn, remote: remote}, nil
}

// Send writes one datagram. Never blocks on network, never retries.
func (s *Sender) Send(b []byte) error {
	n, err := s.conn.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.stat.registerError()
		return errors.Annotatef(err, "tele send remote=%s", s.remote)
	}
	s.stat.registerSent(n)
	if s.log.Enabled(log2.LDebug) {
		s.log.Debugf("tele sent remote=%s b=%s", s.remote, helpers.HexSpaces(b))
	}
	return nil
}

func (s *Sender) Close() error {
	return s.conn.Close()
}

func (s *Sender) LocalAddr() net.Addr { return s.conn.LocalAddr() }
func (s *Sender) Remote() string      { return s.remote }
func (s *Sender) Stat() *Stat         { return &s.stat }
