// Package cache memoises decompressed sections.
//
// Firmware images often carry the same compressed section many times; a Decoder
// decodes each distinct source once and serves copies afterwards. Entries are
// admitted and evicted by TinyLFU, keyed by the xxhash64 of the whole source.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/efidecompress"
)

type key struct {
	sum  uint64
	size int
}

type entry struct {
	src []byte // Compared on hit; a digest match alone is not trusted.
	out []byte
}

// Decoder is a caching front for efidecompress.DecompressBytes.
// A Decoder is safe for concurrent use by multiple goroutines.
type Decoder struct {
	opts *efidecompress.Options

	mu     sync.Mutex
	lfu    *tinylfu.T[key, entry]
	hits   uint64
	misses uint64
}

// New returns a Decoder holding up to entries results. Options nil means defaults.
func New(entries int, opts *efidecompress.Options) *Decoder {
	if entries < 1 {
		entries = 1
	}
	if opts == nil {
		opts = efidecompress.DefaultOptions()
	}

	return &Decoder{
		opts: opts,
		lfu:  tinylfu.New[key, entry](entries, entries*10, hashKey),
	}
}

func keyOf(src []byte) key {
	return key{sum: xxhash.Sum64(src), size: len(src)}
}

func hashKey(k key) uint64 {
	return k.sum ^ uint64(k.size) // #nosec G115 -- size is non-negative
}

// Decompress returns the decoded form of src. The returned slice is the caller's own.
// Failed decodes are not cached.
func (d *Decoder) Decompress(src []byte) ([]byte, error) {
	k := keyOf(src)

	d.mu.Lock()
	e, ok := d.lfu.Get(k)
	if ok && bytes.Equal(e.src, src) {
		d.hits++
		d.mu.Unlock()
		return bytes.Clone(e.out), nil
	}
	d.misses++
	d.mu.Unlock()

	out, err := efidecompress.DecompressBytes(src, d.opts)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.lfu.Add(k, entry{src: bytes.Clone(src), out: bytes.Clone(out)})
	d.mu.Unlock()

	return out, nil
}

// DecompressAll decodes srcs in parallel through the cache, bounded by
// Options.Concurrency. Identical sources are decoded once and count as hits for
// every repeat. Results are in input order and each slice is the caller's own.
// The first failure cancels sections that have not started yet.
func (d *Decoder) DecompressAll(ctx context.Context, srcs [][]byte) ([][]byte, error) {
	first := make([]int, len(srcs))
	seen := make(map[key][]int)
	dupes := 0
	for i, src := range srcs {
		first[i] = i
		k := keyOf(src)
		for _, j := range seen[k] {
			if bytes.Equal(srcs[j], src) {
				first[i] = j
				dupes++
				break
			}
		}
		if first[i] == i {
			seen[k] = append(seen[k], i)
		}
	}

	out := make([][]byte, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency())

	for i, src := range srcs {
		if first[i] != i {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := d.Decompress(src)
			if err != nil {
				return fmt.Errorf("section %d: %w", i, err)
			}
			out[i] = b

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range first {
		if j != i {
			out[i] = bytes.Clone(out[j])
		}
	}

	d.mu.Lock()
	d.hits += uint64(dupes) // #nosec G115 -- non-negative
	d.mu.Unlock()

	return out, nil
}

func (d *Decoder) concurrency() int {
	if d.opts.Concurrency > 0 {
		return d.opts.Concurrency
	}

	return runtime.GOMAXPROCS(0)
}

// Stats reports cache hits and misses so far.
func (d *Decoder) Stats() (hits, misses uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.hits, d.misses
}
