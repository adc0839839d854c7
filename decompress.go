package efidecompress

import (
	"fmt"
)

// Decompress decodes src (header followed by payload) into dst.
// dst must hold at least the declared original size; bytes past it are never written.
// Options nil means DefaultOptions (EFI variant). On error the contents of dst are undefined.
func Decompress(src, dst []byte, opts *Options) error {
	info, err := GetInfo(src)
	if err != nil {
		return err
	}

	if uint64(len(dst)) < uint64(info.OriginalSize) {
		return fmt.Errorf("%w: %w: have %d, need %d", ErrMalformedHeader, ErrDestinationTooSmall, len(dst), info.OriginalSize)
	}

	return decompressPayload(src[HeaderSize:HeaderSize+int(info.CompressedSize)], dst[:info.OriginalSize], opts)
}

// DecompressBytes decodes src into a new buffer of exactly the declared original size.
// Input past the payload reads as zero bits, so a few bytes may declare gigabytes of
// valid output; set Options.MaxOriginalSize when src is untrusted.
func DecompressBytes(src []byte, opts *Options) ([]byte, error) {
	info, err := GetInfo(src)
	if err != nil {
		return nil, err
	}
	if err := opts.checkSize(info); err != nil {
		return nil, err
	}

	out := make([]byte, info.OriginalSize)
	if err := decompressPayload(src[HeaderSize:HeaderSize+int(info.CompressedSize)], out, opts); err != nil {
		return nil, err
	}

	return out, nil
}

// decompressPayload runs the block decoder over a header-stripped payload.
func decompressPayload(payload, dst []byte, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	if len(dst) == 0 {
		return nil
	}

	return newDecoder(payload, dst, opts).run()
}
