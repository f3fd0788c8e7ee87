package wire

import "fmt"

// bitWriter packs fields MSB-first into fixed buffer.
// Layout is built explicitly field by field, never from struct memory.
type bitWriter struct {
	buf []byte
	pos uint
}

func (w *bitWriter) put(v uint32, width uint) {
	if width < 32 && v>>width != 0 {
		panic(fmt.Sprintf("code error wire value=%d does not fit bits=%d", v, width))
	}
	if w.pos+width > uint(len(w.buf))*8 {
		panic(fmt.Sprintf("code error wire overflow pos=%d width=%d len=%d", w.pos, width, len(w.buf)))
	}
	for i := width; i > 0; i-- {
		if (v>>(i-1))&1 == 1 {
			w.buf[w.pos/8] |= 0x80 >> (w.pos % 8)
		}
		w.pos++
	}
}

func (w *bitWriter) pad(width uint) { w.put(0, width) }

func (w *bitWriter) bytes(b []byte) {
	for _, x := range b {
		w.put(uint32(x), 8)
	}
}

func (w *bitWriter) bcd(v uint, tensBits uint) {
	tens, ones := BCD(v)
	w.put(uint32(tens), tensBits)
	w.put(uint32(ones), OnesBits)
}
