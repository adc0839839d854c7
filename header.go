package efidecompress

import (
	"encoding/binary"
	"fmt"
)

// Info holds the sizes declared by a compressed header.
type Info struct {
	CompressedSize uint32 // Payload bytes following the header.
	OriginalSize   uint32 // Exact decompressed size.
}

// GetInfo reads the 8-byte little-endian header at the start of src.
// It fails when src is shorter than the header or than the declared payload.
func GetInfo(src []byte) (Info, error) {
	if len(src) < HeaderSize {
		return Info{}, fmt.Errorf("%w: need %d header bytes, have %d", ErrMalformedHeader, HeaderSize, len(src))
	}

	info := Info{
		CompressedSize: binary.LittleEndian.Uint32(src[0:4]),
		OriginalSize:   binary.LittleEndian.Uint32(src[4:8]),
	}

	// 64-bit sum so a huge declared size cannot wrap.
	if uint64(HeaderSize)+uint64(info.CompressedSize) > uint64(len(src)) {
		return Info{}, fmt.Errorf("%w: compressed size %d exceeds input (%d bytes after header)",
			ErrMalformedHeader, info.CompressedSize, len(src)-HeaderSize)
	}

	return info, nil
}
