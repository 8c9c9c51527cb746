package router

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

// MultiQuote fetches live quotes for a mixed symbol list. Crypto
// symbols go through the crypto adapter's batch endpoint in one call
// when it supports batching; the rest fan out concurrently. Symbols
// that fail individually are simply absent from the result.
func (r *Router) MultiQuote(ctx context.Context, syms []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(syms))
	var mu sync.Mutex

	var cryptoSyms, otherSyms []string
	seen := make(map[string]struct{}, len(syms))
	for _, s := range syms {
		s = symbols.Normalize(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if r.Classify(s) == ClassCryptoSpot {
			cryptoSyms = append(cryptoSyms, s)
		} else {
			otherSyms = append(otherSyms, s)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	if len(cryptoSyms) > 0 {
		if batcher, ok := r.crypto.(provider.BatchQuoter); ok {
			g.Go(func() error {
				quotes, err := batcher.MultiQuote(ctx, cryptoSyms)
				if err != nil {
					return nil // best-effort: skip the whole crypto batch
				}
				mu.Lock()
				for _, q := range quotes {
					out[q.Symbol] = q
				}
				mu.Unlock()
				return nil
			})
		} else {
			otherSyms = append(otherSyms, cryptoSyms...)
		}
	}

	for _, s := range otherSyms {
		g.Go(func() error {
			q, err := r.Route(s).Quote(ctx, s)
			if err != nil {
				return nil
			}
			mu.Lock()
			out[q.Symbol] = *q
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
