package uconnect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/btgate/hardware/serial"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/internal/types"
	"github.com/temoto/btgate/log2"
)

func TestReadEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 11, 7, 8, 9, 10, 0, time.UTC)
	cases := []struct {
		name   string
		read   serial.MockRead
		expect string
		ok     bool
		err    bool
	}{
		{"full", serial.MockRead{Line: "x,y,z,AABBCCDDEEFF\r\n"}, "AABBCCDDEEFF", true, false},
		{"short-id", serial.MockRead{Line: "x,y,z,SHORT\r\n"}, "SHORT", true, false},
		{"more-fields", serial.MockRead{Line: "1,-70,37,001122334455,extra\n"}, "001122334455", true, false},
		{"no-terminator", serial.MockRead{Line: "x,y,z,AABBCCDDEEFF"}, "AABBCCDDEEFF", true, false},
		{"empty", serial.MockRead{Line: ""}, "", false, false},
		{"crlf", serial.MockRead{Line: "\r\n"}, "", false, false},
		{"few-fields", serial.MockRead{Line: "x,y,z\r\n"}, "", false, false},
		{"timeout", serial.MockRead{Err: serial.ErrTimeout}, "", false, false},
		{"error", serial.MockRead{Err: fmt.Errorf("EIO")}, "", false, true},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := New(serial.NewMockPort(c.read), log2.NewTest(t, log2.LDebug))
			r.Now = func() time.Time { return now }
			d, ok, err := r.ReadEvent()
			require.Equal(t, c.ok, ok)
			assert.Equal(t, c.err, err != nil, "err=%v", err)
			if !ok {
				return
			}
			assert.Equal(t, c.expect, string(d.Identifier))
			assert.Equal(t, now, d.ObservedAt)
			assert.Equal(t, types.SourcePassive, d.Source)
		})
	}
}

func TestReadEventTimeoutPassed(t *testing.T) {
	t.Parallel()

	m := serial.NewMockPort()
	m.Exhausted = serial.ErrTimeout
	r := New(m, nil)
	assert.Equal(t, DefaultTimeout, r.Timeout)
	_, ok, err := r.ReadEvent()
	assert.False(t, ok)
	assert.NoError(t, err)
	// loop proceeds on next cycle
	m.Push(serial.MockLines("x,y,z,AABBCCDDEEFF\r\n")...)
	d, ok, err := r.ReadEvent()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "AABBCCDDEEFF", string(d.Identifier))
}

func TestParseLineUTC(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC-3", -3*60*60)
	d, ok := ParseLine("a,b,c,AABBCCDDEEFF\r\n", time.Date(2024, 2, 29, 21, 0, 0, 0, zone))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d.ObservedAt)
}
