// Package encoder produces streams for the efidecompress decoder.
// It favours simplicity over ratio: greedy matching, one Huffman code set per block.
package encoder

import (
	"math/bits"
)

// Stream constants shared with the decoder.
const (
	nc          = 510 // Char&Length-Set size.
	nt          = 19  // Extra-Set size.
	cBit        = 9
	tBit        = 5
	threshold   = 3
	MaxMatch    = 256
	maxBlockLen = 0xFFFF
)

// Options configures Compress and Encode.
type Options struct {
	PBit        int // Position-Set count width: 4 (EFI) or 5 (Tiano).
	SearchLimit int // 0 = literals only; otherwise max backward distance searched for matches.
	BlockSize   int // Max symbols per block; 0 means 0xFFFF.
}

// DefaultOptions returns EFI layout with a 2048-byte match search.
func DefaultOptions() *Options {
	return &Options{
		PBit:        4,
		SearchLimit: 2048,
	}
}

// Token is one decoded symbol: a literal when Length is 0, otherwise a match
// copying Length bytes starting Distance+1 bytes back.
type Token struct {
	Literal  byte
	Length   int
	Distance int
}

// Lit returns a literal token.
func Lit(b byte) Token { return Token{Literal: b} }

// Match returns a match token.
func Match(length, distance int) Token { return Token{Length: length, Distance: distance} }

// WindowSize returns the largest back distance a stream of this layout may use.
func (o *Options) WindowSize() int {
	if o.PBit >= 5 {
		return 1 << 19
	}

	return 1 << 13
}

// Compress returns header + payload for src.
func Compress(src []byte, opts *Options) []byte {
	if opts == nil {
		opts = DefaultOptions()
	}

	return Encode(Tokenize(src, opts), uint32(len(src)), opts) // #nosec G115 -- test inputs are small
}

// Tokenize splits src into literals and greedy longest matches.
func Tokenize(src []byte, opts *Options) []Token {
	if opts == nil {
		opts = DefaultOptions()
	}

	limit := opts.SearchLimit
	if limit < 0 {
		limit = 0
	}
	if w := opts.WindowSize(); limit > w {
		limit = w
	}

	var tokens []Token
	i := 0
	for i < len(src) {
		bestLen, bestOff := 0, 0

		// Offsets count back from i; a match may run into the bytes it produces.
		for off := 1; off <= limit && off <= i; off++ {
			length := 0
			for length < MaxMatch && i+length < len(src) && src[i-off+length] == src[i+length] {
				length++
			}
			if length > bestLen {
				bestLen, bestOff = length, off
				if bestLen == MaxMatch {
					break
				}
			}
		}

		if bestLen >= threshold {
			tokens = append(tokens, Match(bestLen, bestOff-1))
			i += bestLen
		} else {
			tokens = append(tokens, Lit(src[i]))
			i++
		}
	}

	return tokens
}

// Encode writes tokens as a framed stream declaring origSize.
// origSize need not match what the tokens expand to.
func Encode(tokens []Token, origSize uint32, opts *Options) []byte {
	if opts == nil {
		opts = DefaultOptions()
	}

	blockLen := opts.BlockSize
	if blockLen <= 0 || blockLen > maxBlockLen {
		blockLen = maxBlockLen
	}

	w := &BitWriter{}
	for len(tokens) > 0 {
		n := min(blockLen, len(tokens))
		writeBlock(w, tokens[:n], opts.PBit)
		tokens = tokens[n:]
	}

	return Frame(w.Bytes(), origSize)
}

// positionSymbol splits a distance into its Position-Set symbol and extra bits.
func positionSymbol(distance int) (sym int, extra uint32, nextra int) {
	if distance <= 1 {
		return distance, 0, 0
	}
	sym = bits.Len(uint(distance))

	return sym, uint32(distance - 1<<(sym-1)), sym - 1 // #nosec G115 -- distance < window
}

func charSymbol(t Token) int {
	if t.Length == 0 {
		return int(t.Literal)
	}

	return t.Length + 256 - threshold
}

// tItem is one Extra-Set symbol with its trailing raw bits.
type tItem struct {
	sym    int
	nextra int
	extra  uint32
}

// cLenItems run-length codes Char&Length-Set lengths as Extra-Set symbols.
func cLenItems(cLen []uint8) []tItem {
	n := usedPrefix(cLen)

	var items []tItem
	for i := 0; i < n; {
		if cLen[i] != 0 {
			items = append(items, tItem{sym: int(cLen[i]) + 2})
			i++
			continue
		}

		run := 0
		for i+run < n && cLen[i+run] == 0 {
			run++
		}
		i += run

		switch {
		case run <= 2:
			for ; run > 0; run-- {
				items = append(items, tItem{sym: 0})
			}
		case run <= 18:
			items = append(items, tItem{sym: 1, nextra: 4, extra: uint32(run - 3)}) // #nosec G115
		case run == 19:
			items = append(items, tItem{sym: 0}, tItem{sym: 1, nextra: 4, extra: 15})
		default:
			items = append(items, tItem{sym: 2, nextra: cBit, extra: uint32(run - 20)}) // #nosec G115
		}
	}

	return items
}

func usedPrefix(lengths []uint8) int {
	n := len(lengths)
	for n > 0 && lengths[n-1] == 0 {
		n--
	}

	return n
}

// singleSymbol reports the only used symbol when freq has at most one.
func singleSymbol(freq []int) (sym int, ok bool) {
	used := 0
	for s, f := range freq {
		if f != 0 {
			sym = s
			used++
		}
	}

	return sym, used <= 1
}

func writeBlock(w *BitWriter, tokens []Token, pBit int) {
	cFreq := make([]int, nc)
	pFreq := make([]int, (1<<pBit)-1)
	for _, t := range tokens {
		cFreq[charSymbol(t)]++
		if t.Length != 0 {
			p, _, _ := positionSymbol(t.Distance)
			pFreq[p]++
		}
	}

	w.PutBits(16, uint32(len(tokens))) // #nosec G115 -- <= 0xFFFF

	// Char&Length-Set, carried by the Extra-Set.
	var cLen []uint8
	var cCodes []uint16
	if c, single := singleSymbol(cFreq); single {
		WriteConstant(w, tBit, 0)
		WriteConstant(w, cBit, uint32(c)) // #nosec G115
	} else {
		cLen = codeLengths(cFreq)
		cCodes = canonicalCodes(cLen)

		items := cLenItems(cLen)
		tFreq := make([]int, nt)
		for _, it := range items {
			tFreq[it.sym]++
		}

		var tCodes []uint16
		var tLen []uint8
		if t, single := singleSymbol(tFreq); single {
			WriteConstant(w, tBit, uint32(t)) // #nosec G115
			tLen = make([]uint8, nt)
		} else {
			tLen = codeLengths(tFreq)
			tCodes = canonicalCodes(tLen)
			WritePTLen(w, tLen, tBit, 3)
		}

		w.PutBits(cBit, uint32(usedPrefix(cLen))) // #nosec G115 -- <= nc
		for _, it := range items {
			if tLen[it.sym] != 0 {
				w.PutBits(int(tLen[it.sym]), uint32(tCodes[it.sym]))
			}
			w.PutBits(it.nextra, it.extra)
		}
	}

	// Position-Set.
	var pLen []uint8
	var pCodes []uint16
	if p, single := singleSymbol(pFreq); single {
		WriteConstant(w, pBit, uint32(p)) // #nosec G115
		pLen = make([]uint8, len(pFreq))
	} else {
		pLen = codeLengths(pFreq)
		pCodes = canonicalCodes(pLen)
		WritePTLen(w, pLen, pBit, -1)
	}

	for _, t := range tokens {
		c := charSymbol(t)
		if cLen != nil {
			w.PutBits(int(cLen[c]), uint32(cCodes[c]))
		}
		if t.Length == 0 {
			continue
		}

		p, extra, nextra := positionSymbol(t.Distance)
		if pLen[p] != 0 {
			w.PutBits(int(pLen[p]), uint32(pCodes[p]))
		}
		w.PutBits(nextra, extra)
	}
}

// WriteConstant writes a zero count followed by the symbol every lookup resolves to.
func WriteConstant(w *BitWriter, nbit int, sym uint32) {
	w.PutBits(nbit, 0)
	w.PutBits(nbit, sym)
}

// WritePTLen writes Extra-Set or Position-Set code lengths. Lengths above 6 use
// the 111 prefix plus a unary extension; after index special a 2-bit zero run follows.
func WritePTLen(w *BitWriter, lengths []uint8, nbit, special int) {
	n := usedPrefix(lengths)
	w.PutBits(nbit, uint32(n)) // #nosec G115

	for i := 0; i < n; {
		if l := int(lengths[i]); l <= 6 {
			w.PutBits(3, uint32(l)) // #nosec G115
		} else {
			w.PutBits(l-3, 1<<(l-3)-2)
		}
		i++

		if i == special {
			k := 0
			for k < 3 && i+k < n && lengths[i+k] == 0 {
				k++
			}
			w.PutBits(2, uint32(k)) // #nosec G115
			i += k
		}
	}
}
