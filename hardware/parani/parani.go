// Package parani drives Parani SD1000 Bluetooth radio over AT commands.
//
// Inquiry cycle: cancel previous inquiry, start new one, read result lines
// until "OK". Radio paces the cycle with its own scan window (S33).
package parani

import (
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/btgate/hardware/serial"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/log2"
)

const (
	DefaultDevice  = "/dev/ttySerial"
	DefaultBaud    = 57600
	DefaultTimeout = 16 * time.Second // scan window + 1s
)

// AT commands, carriage return terminated.
const (
	CmdCancel  = "AT+BTCANCEL\r"
	CmdInquiry = "AT+BTINQ?\r"
	// S4=0 omit device names from inquiry results
	CmdAnonymous = "ATS4=0\r"
	// S24 max devices per inquiry
	CmdMaxResults = "ATS24=1000\r"
	// S33 inquiry duration, seconds
	CmdScanTime = "ATS33=15\r"
)

// Response lines are matched exactly, terminator included.
// Escaped variants are literal backslash sequences some firmware emits.
const (
	lineOK           = "OK\r\n"
	lineError        = "ERROR\r\n"
	lineErrorEscaped = `ERROR\r\n`
	lineEmpty        = "\r\n"
	lineEmptyEscaped = `\r\n`
)

var SetupCommands = []string{CmdAnonymous, CmdMaxResults, CmdScanTime}

type Parani struct {
	Log     *log2.Log
	Port    serial.Port
	Timeout time.Duration
	Now     func() time.Time
}

func New(port serial.Port, log *log2.Log) *Parani {
	return &Parani{
		Log:     log,
		Port:    port,
		Timeout: DefaultTimeout,
		Now:     time.Now,
	}
}

// Setup writes S registers and clears buffered input.
// Write errors are logged, radio may still work with previous settings.
func (p *Parani) Setup() {
	for _, cmd := range SetupCommands {
		p.write(cmd)
	}
	if err := p.Port.Clear(); err != nil {
		p.Log.Errorf("parani clear err=%v", err)
	}
}

// Inquiry runs one cycle and returns detections in order reported.
// Any read error is returned, caller treats it as device fault.
func (p *Parani) Inquiry() ([]types.Detection, error) {
	p.write(CmdCancel)
	p.write(CmdInquiry)

	var result []types.Detection
	for {
		line, err := p.Port.ReadLine(p.Timeout)
		if err != nil {
			return nil, errors.Annotatef(err, "parani inquiry read after=%d", len(result))
		}
		s := string(line)
		if s == lineOK {
			p.Log.Debugf("parani inquiry complete found=%d", len(result))
			return result, nil
		}
		if d, ok := ParseLine(s, p.Now()); ok {
			result = append(result, d)
		}
	}
}

// Command sends raw AT command and returns response lines up to and including OK or ERROR.
// Used by interactive console.
func (p *Parani) Command(cmd string) ([]string, error) {
	if !strings.HasSuffix(cmd, "\r") {
		cmd += "\r"
	}
	if err := p.Port.WriteAll([]byte(cmd)); err != nil {
		return nil, errors.Annotatef(err, "parani command=%q", cmd)
	}
	var lines []string
	for {
		line, err := p.Port.ReadLine(p.Timeout)
		if err != nil {
			return lines, errors.Annotatef(err, "parani command=%q read", cmd)
		}
		s := string(line)
		lines = append(lines, s)
		switch s {
		case lineOK, lineError, lineErrorEscaped:
			return lines, nil
		}
	}
}

// ParseLine extracts detection from one inquiry result line.
// Result format: "<bdaddr>,<name>,<class>\r\n", only first field is used.
// Returns false for empty and ERROR lines.
func ParseLine(line string, at time.Time) (types.Detection, bool) {
	switch line {
	case "", lineEmpty, lineEmptyEscaped, lineError, lineErrorEscaped:
		return types.Detection{}, false
	}
	line = strings.TrimRight(line, "\r\n")
	id := line
	if i := strings.IndexByte(line, ','); i >= 0 {
		id = line[:i]
	}
	return types.Detection{
		Identifier: []byte(id),
		ObservedAt: at.UTC(),
		Source:     types.SourceInquiry,
	}, true
}

func (p *Parani) write(cmd string) {
	if err := p.Port.WriteAll([]byte(cmd)); err != nil {
		p.Log.Errorf("parani write command=%q err=%v", cmd, err)
	}
}
