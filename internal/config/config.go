package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config is the full process configuration. It is built once in main and
// passed explicitly to every constructor that needs it; nothing reads the
// environment after Load returns.
type Config struct {
	CMCAPIKey        string
	CoinGeckoAPIKey  string
	TelegramBotToken string
	APIAuthKey       string

	RedisURL     string
	CacheTTLSecs int

	RefreshIntervalSecs int

	TokensFile          string
	PipelineConcurrency int

	DexScreenerBaseURL string
	CMCBaseURL         string
	GitHubBaseURL      string
	CoinGeckoBaseURL   string
}

func Load() *Config {
	cfg := &Config{
		CMCAPIKey:        os.Getenv("CMC_API_KEY"),
		CoinGeckoAPIKey:  os.Getenv("COINGECKO_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIAuthKey:       os.Getenv("API_AUTH_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TokensFile:       os.Getenv("TOKENS_CONFIG"),
	}

	if cfg.CMCAPIKey == "" {
		log.Println("Warning: CMC_API_KEY not set, pipeline runs will fail")
	}
	if cfg.CoinGeckoAPIKey == "" {
		log.Println("Warning: COINGECKO_API_KEY not set, community and on-chain data will be disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, channel member counts will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, response caching disabled")
	}

	cfg.CacheTTLSecs = 300
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSecs = n
		}
	}

	// 0 disables the background refresher; requests then always drive runs.
	if v := strings.TrimSpace(os.Getenv("REFRESH_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshIntervalSecs = n
		}
	}

	cfg.PipelineConcurrency = 1
	if v := strings.TrimSpace(os.Getenv("PIPELINE_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PipelineConcurrency = n
		}
	}

	cfg.DexScreenerBaseURL = strings.TrimSpace(os.Getenv("DEXSCREENER_BASE_URL"))
	cfg.CMCBaseURL = strings.TrimSpace(os.Getenv("CMC_BASE_URL"))
	cfg.GitHubBaseURL = strings.TrimSpace(os.Getenv("GITHUB_BASE_URL"))
	cfg.CoinGeckoBaseURL = strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL"))

	return cfg
}
