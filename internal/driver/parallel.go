package driver

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"vesper/internal/diag"
)

// CompileAll compiles every path in parallel. Each file gets its own
// compilation context, so the workers share nothing; results land at their
// input index and need no lock.
func CompileAll(ctx context.Context, paths []string, jobs int, opts Options) ([]*Compilation, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(sorted) {
		jobs = len(sorted)
	}
	if jobs < 1 {
		jobs = 1
	}

	results := make([]*Compilation, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range sorted {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			c, err := CompileFile(path, opts)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MergeBags collects per-file diagnostics into one bag, keeping the
// path-sorted file order. File IDs are per-compilation, so a global sort
// would interleave unrelated files.
func MergeBags(comps []*Compilation) *diag.Bag {
	total := 0
	for _, c := range comps {
		if c != nil {
			total += c.Bag.Len()
		}
	}
	merged := diag.NewBag(total)
	for _, c := range comps {
		if c != nil {
			merged.Merge(c.Bag)
		}
	}
	return merged
}
