package tele

// Values are read and modified atomically, but not consistently,
// i.e. it is possible to read .Sent.Count=1 .Sent.Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"
	"time"

	"github.com/temoto/atomic_clock"
)

type Stat struct {
	Sent      CountSizePair
	Errors    expvar.Int
	LastSent  atomic_clock.Clock
	LastError atomic_clock.Clock
}

func (s *Stat) registerSent(size int) {
	s.Sent.Count.Add(1)
	s.Sent.Size.Add(int64(size))
	s.LastSent.SetNow()
}

func (s *Stat) registerError() {
	s.Errors.Add(1)
	s.LastError.SetNow()
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"sent.count":%d,"sent.size":%d,"errors":%d,"last_sent_ago":"%s","last_error_ago":"%s"}`,
		s.Sent.Count.Value(), s.Sent.Size.Value(), s.Errors.Value(), ago(&s.LastSent), ago(&s.LastError))
}

func ago(c *atomic_clock.Clock) string {
	if c.IsZero() {
		return "never"
	}
	return atomic_clock.Since(c).Truncate(time.Millisecond).String()
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}
