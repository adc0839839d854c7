package efidecompress

// bitReader is a 32-bit MSB-first shift register over the compressed payload.
// Once the payload is exhausted it backfills with zero bits.
type bitReader struct {
	src       []byte // Payload only, header stripped.
	pos       int    // Next unread byte in src.
	bitBuf    uint32 // Top bits are the next bits of the stream.
	subBitBuf uint32 // Last byte loaded from src.
	bitCount  int    // Bits of subBitBuf not yet shifted into bitBuf.
}

// reset points the reader at src and loads the first 32 bits.
func (br *bitReader) reset(src []byte) {
	*br = bitReader{src: src}
	br.fillBuf(bitBufSize)
}

// fillBuf drops the top n bits of bitBuf and backfills n bits from src.
func (br *bitReader) fillBuf(n int) {
	br.bitBuf <<= n
	for n > br.bitCount {
		n -= br.bitCount
		br.bitBuf |= br.subBitBuf << n
		if br.pos < len(br.src) {
			br.subBitBuf = uint32(br.src[br.pos])
			br.pos++
		} else {
			br.subBitBuf = 0
		}
		br.bitCount = 8
	}
	br.bitCount -= n
	br.bitBuf |= br.subBitBuf >> br.bitCount
}

// peek returns the top n bits without consuming them.
func (br *bitReader) peek(n int) uint32 {
	return br.bitBuf >> (bitBufSize - n)
}

// getBits consumes and returns the next n bits.
func (br *bitReader) getBits(n int) uint32 {
	v := br.peek(n)
	br.fillBuf(n)

	return v
}

// consumed reports payload bytes pulled into the register so far.
func (br *bitReader) consumed() int {
	return br.pos
}
