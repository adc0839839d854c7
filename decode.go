package efidecompress

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// decoder is the state of one decode call. It is zero-initialised per call and
// never reused, so no table contents survive between calls.
type decoder struct {
	br    bitReader
	arena treeArena

	dst    []byte // Exactly original-size long.
	outPos int

	blockRemaining uint16
	pBit           int

	ptLen   [NPT]uint8
	cLen    [NC]uint8
	ptTable [1 << ptTableBits]uint16
	cTable  [1 << cTableBits]uint16

	log logrus.FieldLogger
}

func newDecoder(payload, dst []byte, opts *Options) *decoder {
	d := &decoder{
		dst:  dst,
		pBit: opts.Variant.PBit(),
		log:  opts.Logger,
	}
	d.br.reset(payload)

	return d
}

// run decodes symbols until dst is full. A table failure stops it at once.
func (d *decoder) run() error {
	for d.outPos < len(d.dst) {
		sym, err := d.decodeC()
		if err != nil {
			d.debug("table failure", logrus.Fields{"out_pos": d.outPos, "error": err})
			return err
		}

		if sym < 256 {
			d.dst[d.outPos] = byte(sym)
			d.outPos++
			continue
		}

		if err := d.copyMatch(int(sym) - (256 - threshold)); err != nil {
			d.debug("match failure", logrus.Fields{"out_pos": d.outPos, "error": err})
			return err
		}
	}

	return nil
}

// copyMatch decodes a position and copies length bytes from earlier output.
// The copy runs byte by byte: with short distances it reads bytes it has just written.
func (d *decoder) copyMatch(length int) error {
	src := d.outPos - int(d.decodeP()) - 1
	if src < 0 {
		return fmt.Errorf("%w: match at %d reaches %d bytes before start of output", ErrBadTable, d.outPos, -src)
	}

	for ; length > 0 && d.outPos < len(d.dst); length-- {
		d.dst[d.outPos] = d.dst[src]
		d.outPos++
		src++
	}

	return nil
}

// decodeC returns the next Char&Length symbol, reading a block header first when
// the current block is used up.
func (d *decoder) decodeC() (uint16, error) {
	if d.blockRemaining == 0 {
		if err := d.readBlockHeader(); err != nil {
			return 0, err
		}
	}
	d.blockRemaining--

	sym := d.arena.lookup(&d.br, d.cTable[:], cTableBits, NC)
	d.br.fillBuf(int(d.cLen[sym]))

	return sym, nil
}

// decodeP returns the match distance minus one.
func (d *decoder) decodeP() uint32 {
	p := d.arena.lookup(&d.br, d.ptTable[:], ptTableBits, MaxNP)
	d.br.fillBuf(int(d.ptLen[p]))

	if p <= 1 {
		return uint32(p)
	}

	n := int(p) - 1
	return 1<<n | d.br.getBits(n)
}

// readBlockHeader reads the symbol count and the three code-length tables of a block.
// The Position-Set table is built last because it shares ptTable with the Extra-Set.
func (d *decoder) readBlockHeader() error {
	d.blockRemaining = uint16(d.br.getBits(16)) // #nosec G115 -- 16 bits

	d.debug("block", logrus.Fields{"block_size": d.blockRemaining, "out_pos": d.outPos})

	if err := d.readPTLen(NT, tBit, extraSetSpecial); err != nil {
		return fmt.Errorf("extra set: %w", err)
	}
	if err := d.readCLen(); err != nil {
		return fmt.Errorf("char&length set: %w", err)
	}
	if err := d.readPTLen(MaxNP, d.pBit, -1); err != nil {
		return fmt.Errorf("position set: %w", err)
	}

	return nil
}

// readPTLen reads code lengths for the Extra-Set or Position-Set into ptLen and
// builds ptTable. Lengths are 3-bit values, 7 extended by a unary run of 1 bits.
// After index special a 2-bit count of zero lengths follows; special < 0 disables it.
func (d *decoder) readPTLen(nn, nbit, special int) error {
	n := int(d.br.getBits(nbit))
	if n == 0 {
		c := d.br.getBits(nbit)
		if int(c) >= nn {
			return fmt.Errorf("%w: constant symbol %d outside alphabet of %d", ErrBadTable, c, nn)
		}
		for i := range d.ptTable {
			d.ptTable[i] = uint16(c) // #nosec G115 -- c < nn
		}
		clear(d.ptLen[:])

		return nil
	}
	if n > nn {
		return fmt.Errorf("%w: %d code lengths for alphabet of %d", ErrBadTable, n, nn)
	}

	i := 0
	for i < n {
		c := d.br.peek(3)
		if c == 7 {
			mask := uint32(1) << (bitBufSize - 1 - 3)
			for mask&d.br.bitBuf != 0 {
				mask >>= 1
				c++
			}
		}
		if c < 7 {
			d.br.fillBuf(3)
		} else {
			d.br.fillBuf(int(c) - 3)
		}
		d.ptLen[i] = uint8(c) // #nosec G115 -- bounded by makeTable's length check
		i++

		if i == special {
			for skip := d.br.getBits(2); skip > 0 && i < nn; skip-- {
				d.ptLen[i] = 0
				i++
			}
		}
	}
	clear(d.ptLen[i:])

	return d.arena.makeTable(nn, d.ptLen[:], ptTableBits, d.ptTable[:])
}

// readCLen reads the Char&Length-Set code lengths through the Extra-Set table
// and builds cTable.
func (d *decoder) readCLen() error {
	n := int(d.br.getBits(cBit))
	if n == 0 {
		c := d.br.getBits(cBit)
		if int(c) >= NC {
			return fmt.Errorf("%w: constant symbol %d outside alphabet of %d", ErrBadTable, c, NC)
		}
		for i := range d.cTable {
			d.cTable[i] = uint16(c) // #nosec G115 -- c < NC
		}
		clear(d.cLen[:])

		return nil
	}
	if n > NC {
		return fmt.Errorf("%w: %d code lengths for alphabet of %d", ErrBadTable, n, NC)
	}

	i := 0
	for i < n {
		c := d.arena.lookup(&d.br, d.ptTable[:], ptTableBits, NT)
		d.br.fillBuf(int(d.ptLen[c]))

		if c > 2 {
			d.cLen[i] = uint8(c - 2) // #nosec G115 -- c < NT
			i++
			continue
		}

		var zeros int
		switch c {
		case 0:
			zeros = 1
		case 1:
			zeros = int(d.br.getBits(4)) + 3
		default:
			zeros = int(d.br.getBits(cBit)) + 20
		}
		for ; zeros > 0 && i < NC; zeros-- {
			d.cLen[i] = 0
			i++
		}
	}
	clear(d.cLen[i:])

	return d.arena.makeTable(NC, d.cLen[:], cTableBits, d.cTable[:])
}

func (d *decoder) debug(msg string, fields logrus.Fields) {
	if d.log == nil {
		return
	}
	d.log.WithFields(fields).Debug(msg)
}
