package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"tokenlens/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const cmcBaseURL = "https://pro-api.coinmarketcap.com"

// CMCProvider fetches token metadata, quotes, historical quotes and market
// pairs from the CoinMarketCap v2 API. Every call carries the pro API key.
type CMCProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewCMCProvider creates a provider limited to 30 requests per minute, the
// basic-plan ceiling.
func NewCMCProvider(tracer trace.Tracer, baseURL, apiKey string) *CMCProvider {
	if baseURL == "" {
		baseURL = cmcBaseURL
	}
	return &CMCProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

// MetadataByAddress looks up token metadata by contract address. The v2 info
// endpoint keys its response by CoinMarketCap id; the first entry is taken.
func (p *CMCProvider) MetadataByAddress(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	ctx, span := p.tracer.Start(ctx, "cmc.metadata-by-address")
	defer span.End()

	u := fmt.Sprintf("%s/v2/cryptocurrency/info?address=%s", strings.TrimRight(p.baseURL, "/"), url.QueryEscape(address))
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata for %s: %w", address, err)
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse metadata for %s: %w", address, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("no metadata entries for %s", address)
	}

	// Map iteration order is random; sort the id keys so the "first" entry is
	// stable across runs.
	keys := make([]string, 0, len(payload.Data))
	for k := range payload.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var meta domain.TokenMetadata
	if err := json.Unmarshal(payload.Data[keys[0]], &meta); err != nil {
		return nil, fmt.Errorf("parse metadata entry for %s: %w", address, err)
	}
	return &meta, nil
}

// Quote is the latest-quote slice of a CoinMarketCap cryptocurrency record.
type Quote struct {
	Price             float64
	MarketCap         float64
	Volume24h         float64
	CirculatingSupply float64
}

// QuoteByID fetches the latest USD quote for a CoinMarketCap id.
func (p *CMCProvider) QuoteByID(ctx context.Context, id int) (*Quote, error) {
	ctx, span := p.tracer.Start(ctx, "cmc.quote-by-id")
	defer span.End()

	u := fmt.Sprintf("%s/v2/cryptocurrency/quotes/latest?id=%d", strings.TrimRight(p.baseURL, "/"), id)
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch quote for id %d: %w", id, err)
	}

	var payload struct {
		Data map[string]struct {
			CirculatingSupply float64 `json:"circulating_supply"`
			Quote             map[string]struct {
				Price     float64 `json:"price"`
				MarketCap float64 `json:"market_cap"`
				Volume24h float64 `json:"volume_24h"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse quote for id %d: %w", id, err)
	}

	row, ok := payload.Data[fmt.Sprintf("%d", id)]
	if !ok {
		return nil, fmt.Errorf("quote response has no entry for id %d", id)
	}
	usd, ok := row.Quote["USD"]
	if !ok {
		return nil, fmt.Errorf("quote for id %d has no USD entry", id)
	}

	return &Quote{
		Price:             usd.Price,
		MarketCap:         usd.MarketCap,
		Volume24h:         usd.Volume24h,
		CirculatingSupply: row.CirculatingSupply,
	}, nil
}

// HistoricalQuotes fetches count daily historical quotes for an id.
func (p *CMCProvider) HistoricalQuotes(ctx context.Context, id, count int) ([]domain.HistoricalQuote, error) {
	ctx, span := p.tracer.Start(ctx, "cmc.historical-quotes")
	defer span.End()

	u := fmt.Sprintf("%s/v2/cryptocurrency/quotes/historical?id=%d&count=%d&interval=daily",
		strings.TrimRight(p.baseURL, "/"), id, count)
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch historical quotes for id %d: %w", id, err)
	}

	var payload struct {
		Data struct {
			Quotes []struct {
				Timestamp time.Time `json:"timestamp"`
				Quote     map[string]struct {
					Price     float64 `json:"price"`
					Volume24h float64 `json:"volume_24h"`
					MarketCap float64 `json:"market_cap"`
				} `json:"quote"`
			} `json:"quotes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse historical quotes for id %d: %w", id, err)
	}

	quotes := make([]domain.HistoricalQuote, 0, len(payload.Data.Quotes))
	for _, row := range payload.Data.Quotes {
		usd, ok := row.Quote["USD"]
		if !ok {
			continue
		}
		quotes = append(quotes, domain.HistoricalQuote{
			Timestamp: row.Timestamp.UTC(),
			Price:     usd.Price,
			Volume24h: usd.Volume24h,
			MarketCap: usd.MarketCap,
		})
	}
	return quotes, nil
}

// MarketPairs fetches the active market-pair listings for an id.
func (p *CMCProvider) MarketPairs(ctx context.Context, id int) ([]domain.MarketPair, error) {
	ctx, span := p.tracer.Start(ctx, "cmc.market-pairs")
	defer span.End()

	u := fmt.Sprintf("%s/v2/cryptocurrency/market-pairs/latest?id=%d", strings.TrimRight(p.baseURL, "/"), id)
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch market pairs for id %d: %w", id, err)
	}

	var payload struct {
		Data struct {
			MarketPairs []struct {
				Exchange struct {
					Name string `json:"name"`
				} `json:"exchange"`
				MarketPair string `json:"market_pair"`
				Category   string `json:"category"`
				Quote      map[string]struct {
					Price     float64 `json:"price"`
					Volume24h float64 `json:"volume_24h"`
				} `json:"quote"`
			} `json:"market_pairs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse market pairs for id %d: %w", id, err)
	}

	pairs := make([]domain.MarketPair, 0, len(payload.Data.MarketPairs))
	for _, row := range payload.Data.MarketPairs {
		pair := domain.MarketPair{
			ExchangeName: row.Exchange.Name,
			Pair:         row.MarketPair,
			Category:     row.Category,
		}
		if usd, ok := row.Quote["USD"]; ok {
			pair.Price = usd.Price
			pair.Volume24h = usd.Volume24h
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (p *CMCProvider) doGet(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coinmarketcap API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
