package cache

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/woozymasta/efidecompress"
	"github.com/woozymasta/efidecompress/internal/encoder"
)

func TestDecoderServesRepeatsFromCache(t *testing.T) {
	raw := bytes.Repeat([]byte("cached section "), 20)
	enc := encoder.Compress(raw, nil)
	d := New(64, nil)

	for i := 0; i < 3; i++ {
		out, err := d.Decompress(enc)
		require.NoError(t, err)
		require.Equal(t, raw, out)
	}

	hits, misses := d.Stats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(1), misses)
}

func TestDecoderReturnsPrivateCopies(t *testing.T) {
	raw := []byte("do not share me")
	enc := encoder.Compress(raw, nil)
	d := New(64, nil)

	first, err := d.Decompress(enc)
	require.NoError(t, err)
	first[0] = 'X'

	second, err := d.Decompress(enc)
	require.NoError(t, err)
	require.Equal(t, raw, second)
}

func TestDecoderDoesNotCacheErrors(t *testing.T) {
	d := New(64, nil)
	bad := []byte{1, 2, 3}

	for i := 0; i < 2; i++ {
		_, err := d.Decompress(bad)
		require.ErrorIs(t, err, efidecompress.ErrMalformedHeader)
	}

	hits, misses := d.Stats()
	require.Zero(t, hits)
	require.Equal(t, uint64(2), misses)
}

func TestDecoderComparesSourceOnHit(t *testing.T) {
	raw := []byte("the real contents")
	enc := encoder.Compress(raw, nil)
	d := New(64, nil)

	// Plant an entry under the same key as enc but for different source bytes.
	k := key{sum: xxhash.Sum64(enc), size: len(enc)}
	d.lfu.Add(k, entry{src: bytes.Repeat([]byte{0}, len(enc)), out: []byte("forged")})

	out, err := d.Decompress(enc)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestDecoderConcurrentUse(t *testing.T) {
	raws := [][]byte{
		bytes.Repeat([]byte("alpha "), 30),
		bytes.Repeat([]byte("beta "), 40),
		bytes.Repeat([]byte("gamma "), 50),
	}
	encs := make([][]byte, len(raws))
	for i, r := range raws {
		encs[i] = encoder.Compress(r, nil)
	}
	d := New(64, efidecompress.DefaultOptions())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				n := (g + i) % len(encs)
				out, err := d.Decompress(encs[n])
				if err != nil || !bytes.Equal(raws[n], out) {
					t.Errorf("goroutine %d iteration %d: bad result (%v)", g, i, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	hits, misses := d.Stats()
	require.Equal(t, uint64(8*50), hits+misses)
}

func TestDecoderDecompressAllDecodesDuplicatesOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := bytes.Repeat([]byte("option rom "), 25)
	b := bytes.Repeat([]byte("driver "), 30)
	encA, encB := encoder.Compress(a, nil), encoder.Compress(b, nil)
	d := New(16, &efidecompress.Options{Concurrency: 2})

	out, err := d.DecompressAll(context.Background(), [][]byte{encA, encB, bytes.Clone(encA), encA})
	require.NoError(t, err)
	require.Equal(t, [][]byte{a, b, a, a}, out)

	hits, misses := d.Stats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(2), misses)

	out[0][0] = 'X'
	require.Equal(t, a, out[2])
	require.Equal(t, a, out[3])

	// A later batch is served from the cache.
	_, err = d.DecompressAll(context.Background(), [][]byte{encB})
	require.NoError(t, err)
	hits, misses = d.Stats()
	require.Equal(t, uint64(3), hits)
	require.Equal(t, uint64(2), misses)
}

func TestDecoderDecompressAllReportsFailingSection(t *testing.T) {
	defer goleak.VerifyNone(t)

	enc := encoder.Compress([]byte("fine"), nil)
	d := New(16, nil)

	out, err := d.DecompressAll(context.Background(), [][]byte{enc, {1, 2}})
	require.ErrorIs(t, err, efidecompress.ErrMalformedHeader)
	require.Contains(t, err.Error(), "section 1")
	require.Nil(t, out)
}
