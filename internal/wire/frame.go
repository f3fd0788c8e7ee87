// Package wire implements the fixed 23 byte telemetry frame.
//
// Layout, bit order MSB first within each byte:
//
//	0      signature 0xEE
//	1      source_type(6)=60 has_beacon(1) pad(1)
//	2      asset number low byte
//	3      asset number high byte
//	4-15   identifier, 12 raw bytes
//	16     pad(1) second_tens(3) second_ones(4)
//	17     pad(1) minute_tens(3) minute_ones(4)
//	18     pad(2) hour_tens(2) hour_ones(4)
//	19     pad(2) day_tens(2) day_ones(4)
//	20     is_utc(1) pad(2) month_tens(1) month_ones(4)
//	21     year_tens(4) year_ones(4), year = calendar year - 2000
//	22     reserved, zero
//
// The server reassembles timestamp digits by concatenation, so time fields are BCD.
// Frames are write-only, this package has no decoder.
package wire

import (
	"fmt"
	"time"

	"github.com/juju/errors"
)

const (
	FrameSize      = 23
	IdentifierSize = 12

	Signature  byte = 0xEE
	SourceType      = 60

	YearMin = 2000
	YearMax = 2099
)

var (
	ErrIdentifierLength = fmt.Errorf("identifier length must be %d", IdentifierSize)
	ErrYearRange        = fmt.Errorf("year out of range %d-%d", YearMin, YearMax)
)

// BlankIdentifier is sent by heartbeat frames.
var BlankIdentifier = []byte("            ")

type Frame struct {
	AssetNumber uint16
	Identifier  []byte
	Time        time.Time
	HasBeacon   bool
}

func (f *Frame) String() string {
	return fmt.Sprintf("asset=%d id=%q time=%s beacon=%t",
		f.AssetNumber, f.Identifier, f.Time.UTC().Format(time.RFC3339), f.HasBeacon)
}

// Encode serializes f into FrameSize bytes.
// Timestamp is converted to UTC. Years outside YearMin..YearMax return ErrYearRange.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Identifier) != IdentifierSize {
		return nil, errors.Annotatef(ErrIdentifierLength, "identifier=%q length=%d", f.Identifier, len(f.Identifier))
	}
	t := f.Time.UTC()
	if t.Year() < YearMin || t.Year() > YearMax {
		return nil, errors.Annotatef(ErrYearRange, "time=%s", t.Format(time.RFC3339))
	}

	b := make([]byte, FrameSize)
	w := bitWriter{buf: b}
	w.put(uint32(Signature), 8)
	w.put(SourceType, 6)
	w.put(boolBit(f.HasBeacon), 1)
	w.pad(1)
	// low byte goes first, layout requirement
	w.put(uint32(f.AssetNumber&0xff), 8)
	w.put(uint32(f.AssetNumber>>8), 8)
	w.bytes(f.Identifier)

	w.pad(1)
	w.bcd(uint(t.Second()), SecondTensBits)
	w.pad(1)
	w.bcd(uint(t.Minute()), MinuteTensBits)
	w.pad(2)
	w.bcd(uint(t.Hour()), HourTensBits)
	w.pad(2)
	w.bcd(uint(t.Day()), DayTensBits)
	w.put(1, 1) // is_utc
	w.pad(2)
	w.bcd(uint(t.Month()), MonthTensBits)
	w.bcd(uint(t.Year()-YearMin), YearTensBits)
	w.pad(8)

	if w.pos != FrameSize*8 {
		panic(fmt.Sprintf("code error wire frame bits=%d expected=%d", w.pos, FrameSize*8))
	}
	return b, nil
}

func Encode(assetNumber uint16, identifier []byte, t time.Time, hasBeacon bool) ([]byte, error) {
	f := Frame{
		AssetNumber: assetNumber,
		Identifier:  identifier,
		Time:        t,
		HasBeacon:   hasBeacon,
	}
	return f.Encode()
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
