package efidecompress

import "fmt"

// treeArena holds the overflow tree for codes longer than a table's width.
// All three alphabets share one arena; each makeTable call starts allocating
// again at nchar, so only the most recently built table may walk it.
type treeArena struct {
	left  [treeNodes]uint16
	right [treeNodes]uint16
}

// makeTable builds a canonical Huffman decoding table from per-symbol code lengths.
// Codes up to tableBits long are replicated across table; longer codes hang off
// table slots as binary trees in the arena. Node indices are >= nchar, leaves < nchar.
func (a *treeArena) makeTable(nchar int, bitLen []uint8, tableBits int, table []uint16) error {
	var (
		count  [codeBit + 1]uint32
		weight [codeBit + 1]uint32
		start  [codeBit + 2]uint32
	)

	for i := 0; i < nchar; i++ {
		if bitLen[i] > codeBit {
			return fmt.Errorf("%w: symbol %d has code length %d", ErrBadTable, i, bitLen[i])
		}
		count[bitLen[i]]++
	}

	for l := 1; l <= codeBit; l++ {
		start[l+1] = start[l] + count[l]<<(codeBit-l)
	}
	if start[codeBit+1] != 1<<codeBit {
		return fmt.Errorf("%w: code lengths cover 0x%x of 0x%x", ErrBadTable, start[codeBit+1], 1<<codeBit)
	}

	juBits := codeBit - tableBits
	for l := 1; l <= tableBits; l++ {
		start[l] >>= juBits
		weight[l] = 1 << (tableBits - l)
	}
	for l := tableBits + 1; l <= codeBit; l++ {
		weight[l] = 1 << (codeBit - l)
	}

	// Slots past the last short code are tree roots; they must start empty.
	tableSize := uint32(1) << tableBits
	if tail := start[tableBits+1] >> juBits; tail < tableSize {
		clear(table[tail:tableSize])
	}

	avail := nchar
	mask := uint32(1) << (15 - tableBits)
	for ch := 0; ch < nchar; ch++ {
		l := int(bitLen[ch])
		if l == 0 {
			continue
		}

		next := start[l] + weight[l]
		if l <= tableBits {
			// Unreachable after the sum check; kept as a guard on table writes.
			if next > tableSize {
				return fmt.Errorf("%w: symbol %d overflows direct table", ErrBadTable, ch)
			}
			for i := start[l]; i < next; i++ {
				table[i] = uint16(ch) // #nosec G115 -- ch < NC
			}
		} else {
			code := start[l]
			p := &table[code>>juBits]
			for n := l - tableBits; n > 0; n-- {
				if *p == 0 {
					// Also unreachable for a complete code; guards the arena bound.
					if avail >= treeNodes {
						return fmt.Errorf("%w: overflow tree exhausted", ErrBadTable)
					}
					a.left[avail], a.right[avail] = 0, 0
					*p = uint16(avail) // #nosec G115 -- avail < treeNodes
					avail++
				}
				if code&mask != 0 {
					p = &a.right[*p]
				} else {
					p = &a.left[*p]
				}
				code <<= 1
			}
			*p = uint16(ch) // #nosec G115 -- ch < NC
		}
		start[l] = next
	}

	return nil
}

// lookup resolves the symbol at the head of br against table and its overflow tree.
// It peeks only; the caller consumes bitLen[symbol] bits.
func (a *treeArena) lookup(br *bitReader, table []uint16, tableBits int, nchar int) uint16 {
	sym := table[br.peek(tableBits)]
	if int(sym) < nchar {
		return sym
	}

	mask := uint32(1) << (bitBufSize - 1 - tableBits)
	for int(sym) >= nchar {
		if br.bitBuf&mask != 0 {
			sym = a.right[sym]
		} else {
			sym = a.left[sym]
		}
		mask >>= 1
	}

	return sym
}
