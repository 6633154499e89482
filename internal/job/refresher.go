package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Refresher periodically re-runs the aggregation pipeline so the cached run
// never goes stale between requests.
type Refresher struct {
	tracer   trace.Tracer
	tokens   TokenRefresher
	interval time.Duration
}

type TokenRefresher interface {
	RefreshTokens(ctx context.Context) error
}

func NewRefresher(tracer trace.Tracer, tokens TokenRefresher, intervalSecs int) *Refresher {
	return &Refresher{
		tracer:   tracer,
		tokens:   tokens,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start launches the refresh loop. Blocks until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	log.Println("Aggregation refresher starting...")

	go r.refreshLoop(ctx)

	<-ctx.Done()
	log.Println("Aggregation refresher stopped")
}

func (r *Refresher) refreshLoop(ctx context.Context) {
	// Run immediately on start
	if err := r.refresh(ctx); err != nil {
		log.Printf("refresher initial run error: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.refresh(ctx); err != nil {
				log.Printf("refresher error: %v", err)
			}
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "job.refresh-tokens")
	defer span.End()
	return r.tokens.RefreshTokens(ctx)
}
