package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tokenlens/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const runCacheKey = "tokenlens:run"

// PipelineRunner executes a full aggregation pass over the token universe.
type PipelineRunner interface {
	Run(ctx context.Context) (domain.RunResult, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// TokenService fronts the pipeline with a Redis cache so repeated requests
// don't hammer the upstream providers.
type TokenService struct {
	tracer   trace.Tracer
	pipeline PipelineRunner
	redis    RedisClient
	cacheTTL time.Duration
}

func NewTokenService(tracer trace.Tracer, pipeline PipelineRunner, redisClient RedisClient, cacheTTL time.Duration) *TokenService {
	return &TokenService{
		tracer:   tracer,
		pipeline: pipeline,
		redis:    redisClient,
		cacheTTL: cacheTTL,
	}
}

// GetTokens returns the aggregated records for the whole universe, serving
// from cache unless refresh is set. Cache failures are logged and never fail
// the request; a pipeline error is returned as-is.
func (s *TokenService) GetTokens(ctx context.Context, refresh bool) (domain.RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "token-service.get-tokens")
	defer span.End()

	if !refresh && s.redis != nil {
		cached, err := s.getRunCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return *cached, nil
		}
	}

	result, err := s.pipeline.Run(ctx)
	if err != nil {
		return domain.RunResult{}, err
	}

	if s.redis != nil {
		if err := s.setRunCache(ctx, result); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	return result, nil
}

// RefreshTokens forces a pipeline run and rewrites the cache. Used by the
// background refresher.
func (s *TokenService) RefreshTokens(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "token-service.refresh-tokens")
	defer span.End()

	result, err := s.GetTokens(ctx, true)
	if err != nil {
		return err
	}
	log.Printf("Refreshed %d token records", len(result.Records))
	return nil
}

func (s *TokenService) setRunCache(ctx context.Context, result domain.RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, runCacheKey, data, s.cacheTTL).Err()
}

func (s *TokenService) getRunCache(ctx context.Context) (*domain.RunResult, error) {
	data, err := s.redis.Get(ctx, runCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result domain.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
