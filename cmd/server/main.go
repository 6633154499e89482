package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenlens/internal/aggregator"
	"tokenlens/internal/cache"
	"tokenlens/internal/config"
	"tokenlens/internal/handler"
	"tokenlens/internal/job"
	"tokenlens/internal/pipeline"
	"tokenlens/internal/provider"
	"tokenlens/internal/service"
	"tokenlens/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "tokenlens/docs"
)

var (
	loadEnvFunc             = godotenv.Load
	loadConfigFunc          = config.Load
	loadUniverseFunc        = config.LoadUniverse
	initRedisFunc           = cache.InitRedis
	initTracerFunc          = tracing.InitTracer
	newTelegramProviderFunc = func(tracer trace.Tracer, token string) (aggregator.ChannelReader, error) {
		return provider.NewTelegramProvider(tracer, token)
	}
	newTokenServiceFunc    = service.NewTokenService
	newRefresherFunc       = job.NewRefresher
	startRefresherFunc     = func(r *job.Refresher, ctx context.Context) { go r.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Tokenlens API
// @version         1.0
// @description     Multi-source token market data aggregation service.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	universe, err := loadUniverseFunc(cfg.TokensFile)
	if err != nil {
		log.Fatalf("failed to load token universe: %v", err)
	}
	log.Printf("Loaded %d tokens across %d chains", universe.Size(), len(universe.Chains))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Providers. The keyless ones are always on; the rest are enabled only
	// when their credential is configured, and the aggregator treats a nil
	// reader as a disabled capability.
	dex := provider.NewDexScreenerProvider(tracer, cfg.DexScreenerBaseURL)
	market := provider.NewCMCProvider(tracer, cfg.CMCBaseURL, cfg.CMCAPIKey)
	repos := provider.NewGitHubProvider(tracer, cfg.GitHubBaseURL)

	var community aggregator.CommunityReader
	var pools aggregator.PoolReader
	if cfg.CoinGeckoAPIKey != "" {
		community = provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey)
		pools = provider.NewGeckoTerminalProvider(tracer, cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey)
	}

	var channels aggregator.ChannelReader
	if cfg.TelegramBotToken != "" {
		tg, err := newTelegramProviderFunc(tracer, cfg.TelegramBotToken)
		if err != nil {
			log.Printf("Warning: telegram provider init failed, channel stats disabled: %v", err)
		} else {
			channels = tg
		}
	}

	agg := aggregator.New(tracer, dex, market, repos, community, pools, channels)
	driver := pipeline.NewDriver(tracer, agg, universe, cfg.CMCAPIKey != "", cfg.PipelineConcurrency)

	var redisClient service.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}
	tokenService := newTokenServiceFunc(tracer, driver, redisClient, time.Duration(cfg.CacheTTLSecs)*time.Second)

	// Background refresher (stopped by ctx cancel)
	if cfg.RefreshIntervalSecs > 0 {
		refresher := newRefresherFunc(tracer, tokenService, cfg.RefreshIntervalSecs)
		startRefresherFunc(refresher, ctx)
	}

	h := newHandlerFunc(tracer, tokenService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("tokenlens"))

	h.RegisterRoutes(r, cfg.APIAuthKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
