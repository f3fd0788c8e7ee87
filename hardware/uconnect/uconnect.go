// Package uconnect reads detections pushed by u-connect sensor.
// Device sends comma separated lines on its own schedule, no commands.
package uconnect

import (
	"strings"
	"time"

	"github.com/temoto/btgate/hardware/serial"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/log2"
)

const (
	DefaultDevice  = "/dev/ttySerial1"
	DefaultBaud    = 115200
	DefaultTimeout = 10 * time.Minute
)

// Identifier is fourth field: "<seq>,<rssi>,<channel>,<address>,..."
const fieldIdentifier = 3

type Reader struct {
	Log     *log2.Log
	Port    serial.Port
	Timeout time.Duration
	Now     func() time.Time
}

func New(port serial.Port, log *log2.Log) *Reader {
	return &Reader{
		Log:     log,
		Port:    port,
		Timeout: DefaultTimeout,
		Now:     time.Now,
	}
}

// ReadEvent waits for one line. Sensor may stay silent for long time,
// timeout is normal and yields ok=false with nil error.
// Other read errors are returned for caller pacing only, they are not fatal either.
func (r *Reader) ReadEvent() (types.Detection, bool, error) {
	line, err := r.Port.ReadLine(r.Timeout)
	if err != nil {
		if serial.IsTimeout(err) {
			r.Log.Debugf("uconnect read timeout=%v", r.Timeout)
			return types.Detection{}, false, nil
		}
		r.Log.Debugf("uconnect read err=%v", err)
		return types.Detection{}, false, err
	}
	d, ok := ParseLine(string(line), r.Now())
	return d, ok, nil
}

// ParseLine returns false for empty lines and lines with less than 4 fields.
// Identifier length is not checked here.
func ParseLine(line string, at time.Time) (types.Detection, bool) {
	if line == "" || line == "\r\n" {
		return types.Detection{}, false
	}
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, ",")
	if len(parts) <= fieldIdentifier {
		return types.Detection{}, false
	}
	return types.Detection{
		Identifier: []byte(parts[fieldIdentifier]),
		ObservedAt: at.UTC(),
		Source:     types.SourcePassive,
	}, true
}
