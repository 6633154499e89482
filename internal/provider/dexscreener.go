package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokenlens/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const dexScreenerBaseURL = "https://api.dexscreener.com"

// DexScreenerProvider fetches trading-pair and token-profile data from the
// DexScreener public API. No credential is required.
type DexScreenerProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewDexScreenerProvider creates a provider rate limited to roughly the
// public 300 req/min budget.
func NewDexScreenerProvider(tracer trace.Tracer, baseURL string) *DexScreenerProvider {
	if baseURL == "" {
		baseURL = dexScreenerBaseURL
	}
	return &DexScreenerProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 5),
	}
}

type dexPair struct {
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	FDV        *float64 `json:"fdv"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
}

// SearchPairs queries the pair search endpoint by token address and returns
// the canonical pair, or nil when the token has no listed pairs.
func (p *DexScreenerProvider) SearchPairs(ctx context.Context, address string) (*domain.DexPairData, error) {
	ctx, span := p.tracer.Start(ctx, "dexscreener.search-pairs")
	defer span.End()

	u := fmt.Sprintf("%s/latest/dex/search?q=%s", strings.TrimRight(p.baseURL, "/"), url.QueryEscape(address))
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("search pairs for %s: %w", address, err)
	}

	var payload struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse pair search for %s: %w", address, err)
	}
	if len(payload.Pairs) == 0 {
		return nil, nil
	}

	pair := selectCanonicalPair(payload.Pairs)
	data := &domain.DexPairData{
		PriceUSD:         pair.PriceUSD,
		PriceChange24h:   pair.PriceChange.H24,
		Volume24h:        pair.Volume.H24,
		FDV:              pair.FDV,
		PairAddress:      pair.PairAddress,
		QuoteTokenSymbol: pair.QuoteToken.Symbol,
		URL:              pair.URL,
	}
	if pair.Liquidity != nil {
		data.LiquidityUSD = pair.Liquidity.USD
	}
	return data, nil
}

// selectCanonicalPair picks the pair with the highest combined 24h buy+sell
// transaction count. On a tie the earlier pair keeps priority.
func selectCanonicalPair(pairs []dexPair) dexPair {
	best := pairs[0]
	bestTxns := best.Txns.H24.Buys + best.Txns.H24.Sells
	for _, candidate := range pairs[1:] {
		txns := candidate.Txns.H24.Buys + candidate.Txns.H24.Sells
		if txns > bestTxns {
			best = candidate
			bestTxns = txns
		}
	}
	return best
}

type dexProfile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Header       string `json:"header"`
	Description  string `json:"description"`
	Links        []struct {
		Type  string `json:"type"`
		Label string `json:"label"`
		URL   string `json:"url"`
	} `json:"links"`
}

// TokenProfile fetches the latest token-profile listing and returns the
// profile whose address matches case-insensitively, or nil when the token has
// no profile.
func (p *DexScreenerProvider) TokenProfile(ctx context.Context, address string) (*domain.DexProfileData, error) {
	ctx, span := p.tracer.Start(ctx, "dexscreener.token-profile")
	defer span.End()

	u := strings.TrimRight(p.baseURL, "/") + "/token-profiles/latest/v1"
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch token profiles: %w", err)
	}

	var profiles []dexProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("parse token profiles: %w", err)
	}

	for _, profile := range profiles {
		if !strings.EqualFold(profile.TokenAddress, address) {
			continue
		}
		data := &domain.DexProfileData{
			Description: profile.Description,
			Icon:        profile.Icon,
			Header:      profile.Header,
			SocialLinks: make([]domain.SocialLink, 0, len(profile.Links)),
		}
		for _, link := range profile.Links {
			data.SocialLinks = append(data.SocialLinks, domain.SocialLink{
				Platform: link.Type,
				Label:    link.Label,
				URL:      link.URL,
			})
		}
		return data, nil
	}
	return nil, nil
}

func (p *DexScreenerProvider) doGet(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dexscreener API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
