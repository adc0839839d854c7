package efidecompress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DecompressFromReader reads one header and its payload from r and decodes it.
// It never reads past the payload, so r may continue with other data.
// The returned count is the number of bytes consumed from r.
// Options.MaxOriginalSize bounds the output allocation, as in DecompressBytes.
func DecompressFromReader(r io.Reader, opts *Options) ([]byte, int64, error) {
	if r == nil {
		return nil, 0, ErrNilReader
	}

	var hdr [HeaderSize]byte
	n, err := io.ReadFull(r, hdr[:])
	consumed := int64(n)
	if err != nil {
		return nil, consumed, readErr(err, ErrMalformedHeader)
	}

	info := Info{
		CompressedSize: binary.LittleEndian.Uint32(hdr[0:4]),
		OriginalSize:   binary.LittleEndian.Uint32(hdr[4:8]),
	}

	payload, err := readPayload(r, int64(info.CompressedSize))
	consumed += int64(len(payload))
	if err != nil {
		return nil, consumed, readErr(err, ErrUnexpectedEOF)
	}

	// The payload is read first so r stays positioned after a rejected section.
	if err := opts.checkSize(info); err != nil {
		return nil, consumed, err
	}

	out := make([]byte, info.OriginalSize)
	if err := decompressPayload(payload, out, opts); err != nil {
		return nil, consumed, err
	}

	return out, consumed, nil
}

// readPayload reads exactly size bytes without trusting size for the allocation.
func readPayload(r io.Reader, size int64) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return buf, err
	}
	if int64(len(buf)) != size {
		return buf, io.ErrUnexpectedEOF
	}

	return buf, nil
}

// readErr maps a short read to eofErr. Other reader errors pass through.
func readErr(err, eofErr error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", eofErr, err)
	}

	return err
}
