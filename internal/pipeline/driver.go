// Package pipeline drives the full aggregation run over the configured token
// universe.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"tokenlens/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrMissingMarketDataKey is the single fatal precondition: without the
// market-data credential no run is attempted and no partial result exists.
var ErrMissingMarketDataKey = errors.New("CMC_API_KEY is not set")

// TokenAggregator builds the record for one token. Soft failures are reported
// as strings, never as an error.
type TokenAggregator interface {
	Aggregate(ctx context.Context, token domain.TokenDescriptor) (domain.AggregatedTokenRecord, []string)
}

// Driver iterates chains in configured order and tokens in configured order
// within each chain. Concurrency 1 keeps aggregation strictly sequential, the
// default chosen to stay inside per-provider rate limits; higher values use an
// index-addressed worker pool that still preserves output order.
type Driver struct {
	tracer       trace.Tracer
	agg          TokenAggregator
	universe     domain.Universe
	hasMarketKey bool
	concurrency  int
}

func NewDriver(tracer trace.Tracer, agg TokenAggregator, universe domain.Universe, hasMarketKey bool, concurrency int) *Driver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Driver{
		tracer:       tracer,
		agg:          agg,
		universe:     universe,
		hasMarketKey: hasMarketKey,
		concurrency:  concurrency,
	}
}

// Run produces one record per token of the universe, in configured order.
// Every provider failure is soft; the only fatal path is the missing
// market-data credential.
func (d *Driver) Run(ctx context.Context) (domain.RunResult, error) {
	ctx, span := d.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	if !d.hasMarketKey {
		return domain.RunResult{}, ErrMissingMarketDataKey
	}

	start := time.Now()
	tokens := d.universe.Flatten()
	records := make([]domain.AggregatedTokenRecord, len(tokens))
	errLists := make([][]string, len(tokens))

	if d.concurrency == 1 {
		for i, token := range tokens {
			log.Printf("aggregating %s on %s...", token.Name, token.Chain)
			records[i], errLists[i] = d.agg.Aggregate(ctx, token)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)
		for i, token := range tokens {
			g.Go(func() error {
				log.Printf("aggregating %s on %s...", token.Name, token.Chain)
				records[i], errLists[i] = d.agg.Aggregate(gctx, token)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := domain.RunResult{
		Records:    records,
		DurationMS: time.Since(start).Milliseconds(),
	}
	for _, errs := range errLists {
		result.Errors = append(result.Errors, errs...)
	}

	log.Printf("aggregated %d tokens in %s (%d degraded fields)", len(records), time.Since(start).Round(time.Millisecond), len(result.Errors))
	return result, nil
}
