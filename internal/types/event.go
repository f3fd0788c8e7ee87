package types

import (
	"fmt"
	"time"
)

type SourceKind uint8

const (
	SourceInvalid SourceKind = iota
	SourceHeartbeat
	SourceInquiry
	SourcePassive
)

func (k SourceKind) String() string {
	switch k {
	case SourceHeartbeat:
		return "heartbeat"
	case SourceInquiry:
		return "inquiry"
	case SourcePassive:
		return "passive"
	default:
		return fmt.Sprintf("SourceKind(%d)", uint8(k))
	}
}

// Detection is one device sighting, framed and sent right away.
// Never stored or retried.
type Detection struct {
	Identifier []byte
	ObservedAt time.Time
	Source     SourceKind
}

func (d *Detection) String() string {
	return fmt.Sprintf("source=%s id=%q at=%s", d.Source, d.Identifier, d.ObservedAt.UTC().Format(time.RFC3339))
}
