package log2

import (
	"log/syslog"

	"github.com/juju/errors"
)

// Syslog forwards messages to remote syslog over UDP, facility daemon.
// Severity follows log level: error=err, info=info, debug=debug.
type Syslog struct{ w *syslog.Writer }

func DialSyslog(addr, tag string) (*Syslog, error) {
	w, err := syslog.Dial("udp", addr, syslog.LOG_DAEMON|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, errors.Annotatef(err, "syslog dial addr=%s", addr)
	}
	return &Syslog{w: w}, nil
}

func (s *Syslog) send(level Level, msg string) error {
	switch {
	case level <= LError:
		return s.w.Err(msg)
	case level == LInfo:
		return s.w.Info(msg)
	}
	return s.w.Debug(msg)
}

func (s *Syslog) Close() error { return s.w.Close() }
