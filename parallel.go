package efidecompress

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DecompressAll decodes independent compressed sections in parallel.
// At most Options.Concurrency sections decode at once. The first failure
// cancels sections that have not started yet and is returned; results are in input order.
func DecompressAll(ctx context.Context, srcs [][]byte, opts *Options) ([][]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	out := make([][]byte, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())

	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := DecompressBytes(src, opts)
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

	return out, nil
}
