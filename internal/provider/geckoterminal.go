package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tokenlens/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// geckoTerminalNetworks maps the pipeline's chain identifiers to the
// GeckoTerminal network naming scheme. Chains without an entry have no
// on-chain coverage.
var geckoTerminalNetworks = map[string]string{
	domain.ChainEthereum:  "eth",
	domain.ChainPolygon:   "polygon_pos",
	domain.ChainBSC:       "bsc",
	domain.ChainAvalanche: "avax",
	domain.ChainArbitrum:  "arbitrum",
	domain.ChainOptimism:  "optimism",
	domain.ChainBase:      "base",
	domain.ChainFlow:      "flow",
}

// GeckoTerminalProvider fetches pool-level DEX data from the on-chain
// endpoints of the CoinGecko API. It shares the CoinGecko credential.
type GeckoTerminalProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

func NewGeckoTerminalProvider(tracer trace.Tracer, baseURL, apiKey string) *GeckoTerminalProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	return &GeckoTerminalProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

// NetworkName returns the indexer-side name for a chain, or false when the
// chain is not covered.
func NetworkName(chain string) (string, bool) {
	name, ok := geckoTerminalNetworks[chain]
	return name, ok
}

type onchainTokenInfo struct {
	Data struct {
		Attributes struct {
			Name        string   `json:"name"`
			Symbol      string   `json:"symbol"`
			Decimals    int      `json:"decimals"`
			TotalSupply string   `json:"total_supply"`
			Description string   `json:"description"`
			Websites    []string `json:"websites"`
			CoinID      string   `json:"coingecko_coin_id"`
		} `json:"attributes"`
	} `json:"data"`
}

type onchainPools struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name                  string `json:"name"`
			BaseTokenPriceUSD     string `json:"base_token_price_usd"`
			QuoteTokenPriceUSD    string `json:"quote_token_price_usd"`
			PriceChangePercentage struct {
				H24 string `json:"h24"`
			} `json:"price_change_percentage"`
			VolumeUSD struct {
				H24 string `json:"h24"`
			} `json:"volume_usd"`
			ReserveInUSD  string `json:"reserve_in_usd"`
			DexID         string `json:"dex_id"`
			FDVUSD        string `json:"fdv_usd"`
			MarketCapUSD  string `json:"market_cap_usd"`
			PoolCreatedAt string `json:"pool_created_at"`
		} `json:"attributes"`
	} `json:"data"`
}

const poolCap = 5

// PoolData fetches token info and the top pools for a token on a chain with a
// tolerant join. It returns (nil, nil) when the chain has no network mapping,
// and an error only when both calls failed.
func (p *GeckoTerminalProvider) PoolData(ctx context.Context, chain, address string) (*domain.OnChainPoolData, error) {
	ctx, span := p.tracer.Start(ctx, "geckoterminal.pool-data")
	defer span.End()

	network, ok := NetworkName(chain)
	if !ok {
		return nil, nil
	}

	base := strings.TrimRight(p.baseURL, "/")

	var (
		info    onchainTokenInfo
		infoErr error
		pools   onchainPools
		poolErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/onchain/networks/%s/tokens/%s/info", base, network, address))
		if err != nil {
			infoErr = err
			return nil
		}
		infoErr = json.Unmarshal(body, &info)
		return nil
	})
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/onchain/networks/%s/tokens/%s/pools", base, network, address))
		if err != nil {
			poolErr = err
			return nil
		}
		poolErr = json.Unmarshal(body, &pools)
		return nil
	})
	_ = g.Wait()

	if infoErr != nil && poolErr != nil {
		return nil, fmt.Errorf("fetch on-chain data for %s on %s: info: %v; pools: %v", address, network, infoErr, poolErr)
	}

	data := &domain.OnChainPoolData{Pools: []domain.PoolData{}}

	if infoErr == nil {
		attrs := info.Data.Attributes
		data.TokenInfo = &domain.OnChainTokenInfo{
			Name:        attrs.Name,
			Symbol:      attrs.Symbol,
			Decimals:    attrs.Decimals,
			TotalSupply: attrs.TotalSupply,
			Description: attrs.Description,
			Websites:    attrs.Websites,
			CoinID:      attrs.CoinID,
		}
	}

	if poolErr == nil {
		// Top pools as received from the provider, capped, no re-ranking.
		for i, pool := range pools.Data {
			if i >= poolCap {
				break
			}
			attrs := pool.Attributes
			data.Pools = append(data.Pools, domain.PoolData{
				Address:               pool.ID,
				Name:                  attrs.Name,
				BaseTokenPriceUSD:     attrs.BaseTokenPriceUSD,
				QuoteTokenPriceUSD:    attrs.QuoteTokenPriceUSD,
				PriceChangePercent24h: attrs.PriceChangePercentage.H24,
				Volume24hUSD:          attrs.VolumeUSD.H24,
				ReserveUSD:            attrs.ReserveInUSD,
				DexName:               attrs.DexID,
				FDVUSD:                attrs.FDVUSD,
				MarketCapUSD:          attrs.MarketCapUSD,
				CreatedAt:             attrs.PoolCreatedAt,
			})
		}
	}

	return data, nil
}

func (p *GeckoTerminalProvider) doGet(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-cg-pro-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geckoterminal API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
