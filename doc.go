/*
Package efidecompress implements the UEFI and Tiano LZ77+Huffman decompressor.

Format: an 8-byte little-endian header (compressed size, original size) followed by
the payload. The payload is a sequence of blocks, each opening with a 16-bit symbol
count and three canonical Huffman tables: the Extra Set (code lengths of the
Char&Len Set), the Char&Len Set (literals 0..255 and match lengths 3..256) and the
Position Set (distance bucket per match). Bits are read MSB-first; input past the
end of the payload reads as zero bits.

Match distance d copies from output index pos-d-1, so d 0 repeats the previous byte.
Copies run byte by byte and may overlap their own output. Decoding stops when the
declared original size is reached.

Two variants differ only in the Position-Set count width:
VariantEFI (4 bits, 8 KiB window) and VariantTiano (5 bits, 512 KiB window).

Use GetInfo(src) to read the header sizes without decoding.
Use Decompress(src, dst, opts) to decode into a caller buffer of at least the original size.
Use DecompressBytes(src, opts) to allocate the output buffer.
Use DecompressFromReader(r, opts) to decode one section from a stream without reading to EOF.
Use DecompressAll(ctx, srcs, opts) to decode independent sections in parallel.
Use TianoOptions() for Tiano streams; nil options mean EFI.

# Examples

Decompress with default options (EFI variant):

	out, err := efidecompress.DecompressBytes(section, nil)
	if err != nil {
		return err
	}

Decode into a reused buffer:

	info, err := efidecompress.GetInfo(section)
	if err != nil {
		return err
	}
	buf = slices.Grow(buf[:0], int(info.OriginalSize))[:info.OriginalSize]
	if err := efidecompress.Decompress(section, buf, nil); err != nil {
		return err
	}

Decompress one section from a stream and continue from the current position:

	out, consumed, err := efidecompress.DecompressFromReader(r, efidecompress.TianoOptions())
	if err != nil {
		return err
	}
	_ = consumed

Decompress many sections with block-level debug logging:

	opts := &efidecompress.Options{Logger: logrus.StandardLogger(), Concurrency: 4}
	outs, err := efidecompress.DecompressAll(ctx, sections, opts)
*/
package efidecompress
