package encoder

import (
	"container/heap"
	"math/bits"
)

const maxCodeLen = 16

// codeLengths returns complete prefix code lengths for the non-zero entries of freq.
// It needs at least two used symbols. Huffman depths deeper than 16 fall back to a
// flat code, which is always complete and short enough.
func codeLengths(freq []int) []uint8 {
	lengths := huffmanLengths(freq)
	for _, l := range lengths {
		if l > maxCodeLen {
			return flatLengths(freq)
		}
	}

	return lengths
}

type hnode struct {
	weight int
	id     int // Tie-break so output is deterministic.
	parent int
}

type hheap struct {
	nodes []hnode
	idx   []int
}

func (h *hheap) Len() int { return len(h.idx) }
func (h *hheap) Less(i, j int) bool {
	a, b := h.nodes[h.idx[i]], h.nodes[h.idx[j]]
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	return a.id < b.id
}
func (h *hheap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *hheap) Push(x any)    { h.idx = append(h.idx, x.(int)) }
func (h *hheap) Pop() any {
	n := len(h.idx) - 1
	x := h.idx[n]
	h.idx = h.idx[:n]
	return x
}

func huffmanLengths(freq []int) []uint8 {
	h := &hheap{}
	leaf := make(map[int]int) // symbol -> node
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		leaf[sym] = len(h.nodes)
		h.nodes = append(h.nodes, hnode{weight: f, id: len(h.nodes), parent: -1})
		h.idx = append(h.idx, len(h.nodes)-1)
	}
	heap.Init(h)

	for h.Len() > 1 {
		a := heap.Pop(h).(int)
		b := heap.Pop(h).(int)
		p := len(h.nodes)
		h.nodes = append(h.nodes, hnode{weight: h.nodes[a].weight + h.nodes[b].weight, id: p, parent: -1})
		h.nodes[a].parent = p
		h.nodes[b].parent = p
		heap.Push(h, p)
	}

	lengths := make([]uint8, len(freq))
	for sym, n := range leaf {
		depth := 0
		for p := h.nodes[n].parent; p >= 0; p = h.nodes[p].parent {
			depth++
		}
		if depth > 255 {
			depth = 255
		}
		lengths[sym] = uint8(depth) // #nosec G115 -- clamped
	}

	return lengths
}

// flatLengths gives k used symbols lengths L-1 and L with L = ceil(log2 k).
func flatLengths(freq []int) []uint8 {
	k := 0
	for _, f := range freq {
		if f != 0 {
			k++
		}
	}
	l := bits.Len(uint(k - 1))
	short := 1<<l - k

	lengths := make([]uint8, len(freq))
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		if short > 0 {
			lengths[sym] = uint8(l - 1) // #nosec G115 -- l <= 16
			short--
		} else {
			lengths[sym] = uint8(l) // #nosec G115 -- l <= 16
		}
	}

	return lengths
}

// canonicalCodes assigns codes in symbol order within each length, shorter first.
func canonicalCodes(lengths []uint8) []uint16 {
	var (
		count [maxCodeLen + 1]uint32
		start [maxCodeLen + 2]uint32
	)
	for _, l := range lengths {
		count[l]++
	}
	for l := 1; l <= maxCodeLen; l++ {
		start[l+1] = start[l] + count[l]<<(maxCodeLen-l)
	}

	codes := make([]uint16, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = uint16(start[l] >> (maxCodeLen - int(l))) // #nosec G115 -- fits in l bits
		start[l] += 1 << (maxCodeLen - int(l))
	}

	return codes
}
