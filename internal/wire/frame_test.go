package wire

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/btgate/helpers"
)

// test-only reader mirroring bitWriter
type bitReader struct {
	buf []byte
	pos uint
}

func (r *bitReader) get(width uint) uint32 {
	var v uint32
	for i := uint(0); i < width; i++ {
		bit := (r.buf[r.pos/8] >> (7 - r.pos%8)) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v
}

func (r *bitReader) digits(tensBits uint) int {
	tens := r.get(tensBits)
	ones := r.get(OnesBits)
	return int(tens*10 + ones)
}

type decoded struct {
	signature  byte
	sourceType uint32
	beacon     bool
	asset      uint16
	identifier []byte
	utc        bool
	pads       []uint32
	t          time.Time
	reserved   uint32
}

func decodeFrame(t testing.TB, b []byte) decoded {
	require.Equal(t, FrameSize, len(b))
	r := bitReader{buf: b}
	d := decoded{}
	d.signature = byte(r.get(8))
	d.sourceType = r.get(6)
	d.beacon = r.get(1) == 1
	d.pads = append(d.pads, r.get(1))
	lo := r.get(8)
	hi := r.get(8)
	d.asset = uint16(hi<<8 | lo)
	d.identifier = make([]byte, IdentifierSize)
	for i := range d.identifier {
		d.identifier[i] = byte(r.get(8))
	}
	d.pads = append(d.pads, r.get(1))
	sec := r.digits(SecondTensBits)
	d.pads = append(d.pads, r.get(1))
	minute := r.digits(MinuteTensBits)
	d.pads = append(d.pads, r.get(2))
	hour := r.digits(HourTensBits)
	d.pads = append(d.pads, r.get(2))
	day := r.digits(DayTensBits)
	d.utc = r.get(1) == 1
	d.pads = append(d.pads, r.get(2))
	month := r.digits(MonthTensBits)
	year := r.digits(YearTensBits)
	d.reserved = r.get(8)
	d.t = time.Date(YearMin+year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	return d
}

func TestEncodeScenario(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 11, 7, 8, 9, 10, 0, time.UTC)
	b, err := Encode(0x1234, []byte("AABBCCDDEEFF"), ts, false)
	require.NoError(t, err)
	require.Equal(t, FrameSize, len(b))

	assert.Equal(t, byte(0xEE), b[0])
	assert.Equal(t, byte(0xF0), b[1])
	assert.Equal(t, byte(0x34), b[2])
	assert.Equal(t, byte(0x12), b[3])
	assert.Equal(t, "AABBCCDDEEFF", string(b[4:16]))
	assert.Equal(t, byte(0x10), b[16], "pad=0 sec_tens=1 sec_ones=0")
	assert.Equal(t, byte(0x09), b[17])
	assert.Equal(t, byte(0x08), b[18])
	assert.Equal(t, byte(0x07), b[19])
	assert.Equal(t, byte(0x91), b[20], "is_utc=1 pad=00 month=1,1")
	assert.Equal(t, byte(0x23), b[21])
	assert.Equal(t, byte(0x00), b[22])
	assert.Equal(t, "eef034124141424243434444454546461009080791"+"2300", hex.EncodeToString(b))
}

func TestEncodeBeacon(t *testing.T) {
	t.Parallel()

	ts := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	b, err := Encode(0, BlankIdentifier, ts, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0xF2), b[1])
	assert.Equal(t, "            ", string(b[4:16]))
}

func TestEncodeYear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		year   int
		tens   byte
		ones   byte
		expect error
	}{
		{2024, 2, 4, nil},
		{2000, 0, 0, nil},
		{2099, 9, 9, nil},
		{1970, 0, 0, ErrYearRange},
		{1999, 0, 0, ErrYearRange},
		{2100, 0, 0, ErrYearRange},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(time.Date(c.year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006"), func(t *testing.T) {
			b, err := Encode(1, []byte("000000000000"), time.Date(c.year, 6, 15, 12, 30, 45, 0, time.UTC), false)
			if c.expect != nil {
				require.Error(t, err)
				assert.Equal(t, c.expect, errors.Cause(err))
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.tens, b[21]>>4)
			assert.Equal(t, c.ones, b[21]&0x0f)
		})
	}
}

func TestEncodeIdentifierLength(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	for _, id := range []string{"", "SHORT", "AABBCCDDEEFF\r\n", "AABBCCDDEEF"} {
		_, err := Encode(1, []byte(id), now, false)
		assert.Equal(t, ErrIdentifierLength, errors.Cause(err), "id=%q", id)
	}
}

func TestEncodeConvertsToUTC(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 1, 1, 1, 30, 0, 0, zone)
	b, err := Encode(7, []byte("AABBCCDDEEFF"), local, false)
	require.NoError(t, err)
	d := decodeFrame(t, b)
	assert.True(t, d.utc)
	assert.Equal(t, time.Date(2023, 12, 31, 22, 30, 0, 0, time.UTC), d.t)
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	rnd := helpers.RandUnix()
	begin := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
	for i := 0; i < 2000; i++ {
		ts := time.Unix(begin+rnd.Int63n(end-begin), 0).UTC()
		asset := uint16(rnd.Intn(1 << 16))
		id := make([]byte, IdentifierSize)
		rnd.Read(id)
		beacon := rnd.Intn(2) == 1

		b, err := Encode(asset, id, ts, beacon)
		require.NoError(t, err)
		d := decodeFrame(t, b)
		require.Equal(t, Signature, d.signature)
		require.Equal(t, uint32(SourceType), d.sourceType)
		require.Equal(t, beacon, d.beacon)
		require.Equal(t, asset, d.asset)
		require.Equal(t, id, d.identifier)
		require.True(t, d.utc)
		require.Equal(t, ts, d.t)
		require.Equal(t, uint32(0), d.reserved)
		for _, p := range d.pads {
			require.Equal(t, uint32(0), p)
		}
	}
}

func TestFrameString(t *testing.T) {
	t.Parallel()

	f := Frame{AssetNumber: 5, Identifier: []byte("AABBCCDDEEFF"), Time: time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)}
	assert.Equal(t, `asset=5 id="AABBCCDDEEFF" time=2024-03-04T05:06:07Z beacon=false`, f.String())
}
