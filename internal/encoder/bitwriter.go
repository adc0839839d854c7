package encoder

import "encoding/binary"

// BitWriter packs values MSB-first, matching the decoder's shift register.
type BitWriter struct {
	out   []byte
	acc   uint64
	nbits uint
}

// PutBits appends the low n bits of v (n <= 32).
func (w *BitWriter) PutBits(n int, v uint32) {
	if n == 0 {
		return
	}
	w.acc = w.acc<<uint(n) | uint64(v)&(1<<uint(n)-1)
	w.nbits += uint(n)
	for w.nbits >= 8 {
		w.nbits -= 8
		w.out = append(w.out, byte(w.acc>>w.nbits))
	}
	w.acc &= 1<<w.nbits - 1
}

// Bytes flushes a partial byte (zero-padded) and returns the packed payload.
func (w *BitWriter) Bytes() []byte {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nbits)))
		w.acc, w.nbits = 0, 0
	}

	return w.out
}

// Frame prepends the 8-byte header (payload size, original size) to payload.
func Frame(payload []byte, origSize uint32) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(payload))) // #nosec G115 -- test payloads are small
	binary.LittleEndian.PutUint32(out[4:8], origSize)

	return append(out, payload...)
}
