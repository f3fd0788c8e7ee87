package helpers

import (
	"sync/atomic"
	"time"
)

// Limited exponential backoff for retry delays.
// First Failure() returns Min, each next one K times more, up to Max.
// Reset() after success.
//
// Use scenario:
//
//	for {
//	  err := op()
//	  if err != nil {
//	    time.Sleep(backoff.Failure())
//	    continue
//	  }
//	  backoff.Reset()
//	}
type Backoff struct {
	next int64 // atomic align

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
}

func (b *Backoff) Failure() time.Duration {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if next == 0 {
		next = b.Min
	} else {
		next = time.Duration(float32(next) * b.K)
	}
	next = b.limit(next)
	atomic.StoreInt64(&b.next, int64(next))
	return next
}

func (b *Backoff) Reset() {
	atomic.StoreInt64(&b.next, 0)
}

// Next returns delay of previous Failure(), 0 after Reset.
func (b *Backoff) Next() time.Duration {
	return time.Duration(atomic.LoadInt64(&b.next))
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
