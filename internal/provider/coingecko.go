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
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches community, developer and market scores plus
// tickers, chart and OHLC series from the CoinGecko pro API. Construct it only
// when a key is configured; without one the whole capability is disabled.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewCoinGeckoProvider creates a provider rate limited to 30 requests per
// minute, the analyst-plan ceiling.
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL, apiKey string) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

// Search returns the coins matching a free-text query.
func (p *CoinGeckoProvider) Search(ctx context.Context, query string) ([]domain.CoinMatch, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.search")
	defer span.End()

	u := fmt.Sprintf("%s/search?query=%s", strings.TrimRight(p.baseURL, "/"), url.QueryEscape(query))
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var payload struct {
		Coins []domain.CoinMatch `json:"coins"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse search %q: %w", query, err)
	}
	return payload.Coins, nil
}

type coinDetail struct {
	MarketCapRank       int     `json:"market_cap_rank"`
	CommunityScore      float64 `json:"community_score"`
	DeveloperScore      float64 `json:"developer_score"`
	LiquidityScore      float64 `json:"liquidity_score"`
	PublicInterestScore float64 `json:"public_interest_score"`
	MarketData          struct {
		CurrentPrice   map[string]float64 `json:"current_price"`
		MarketCap      map[string]float64 `json:"market_cap"`
		TotalVolume    map[string]float64 `json:"total_volume"`
		PriceChange24h float64            `json:"price_change_percentage_24h"`
		PriceChange7d  float64            `json:"price_change_percentage_7d"`
		PriceChange30d float64            `json:"price_change_percentage_30d"`
		ATH            map[string]float64 `json:"ath"`
		ATHDate        map[string]string  `json:"ath_date"`
		ATL            map[string]float64 `json:"atl"`
		ATLDate        map[string]string  `json:"atl_date"`
	} `json:"market_data"`
	CommunityData struct {
		TwitterFollowers  int `json:"twitter_followers"`
		RedditSubscribers int `json:"reddit_subscribers"`
		RedditActive48h   int `json:"reddit_accounts_active_48h"`
		TelegramUsers     int `json:"telegram_channel_user_count"`
	} `json:"community_data"`
	DeveloperData struct {
		Forks           int `json:"forks"`
		Stars           int `json:"stars"`
		Subscribers     int `json:"subscribers"`
		CommitCount4Wks int `json:"commit_count_4_weeks"`
	} `json:"developer_data"`
}

type tickersPayload struct {
	Tickers []struct {
		Base   string `json:"base"`
		Target string `json:"target"`
		Market struct {
			Name string `json:"name"`
		} `json:"market"`
		Last              float64 `json:"last"`
		Volume            float64 `json:"volume"`
		CostToMoveUpUSD   float64 `json:"cost_to_move_up_usd"`
		CostToMoveDownUSD float64 `json:"cost_to_move_down_usd"`
		SpreadPercentage  float64 `json:"bid_ask_spread_percentage"`
		TrustScore        string  `json:"trust_score"`
		IsStale           bool    `json:"is_stale"`
	} `json:"tickers"`
}

type marketChartPayload struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

const (
	tickerCap       = 10
	chartPointCap   = 30
	marketChartDays = 30
	ohlcDays        = 7
)

// CoinData fetches the detailed coin record for a resolved id, then fans out
// tickers, 30-day market chart and 7-day OHLC with a tolerant join: each of
// the three degrades independently to empty on failure.
func (p *CoinGeckoProvider) CoinData(ctx context.Context, id string) (*domain.CommunityData, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.coin-data")
	defer span.End()

	base := strings.TrimRight(p.baseURL, "/")
	u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&market_data=true&community_data=true&developer_data=true",
		base, url.PathEscape(id))
	body, err := p.doGet(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch coin %s: %w", id, err)
	}

	var detail coinDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parse coin %s: %w", id, err)
	}

	var (
		tickers  tickersPayload
		tickErr  error
		chart    marketChartPayload
		chartErr error
		ohlc     [][]float64
		ohlcErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/coins/%s/tickers?depth=true", base, url.PathEscape(id)))
		if err != nil {
			tickErr = err
			return nil
		}
		tickErr = json.Unmarshal(body, &tickers)
		return nil
	})
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", base, url.PathEscape(id), marketChartDays))
		if err != nil {
			chartErr = err
			return nil
		}
		chartErr = json.Unmarshal(body, &chart)
		return nil
	})
	g.Go(func() error {
		body, err := p.doGet(gctx, fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%d", base, url.PathEscape(id), ohlcDays))
		if err != nil {
			ohlcErr = err
			return nil
		}
		ohlcErr = json.Unmarshal(body, &ohlc)
		return nil
	})
	_ = g.Wait()

	data := &domain.CommunityData{
		ID:                  id,
		MarketCapRank:       detail.MarketCapRank,
		CommunityScore:      detail.CommunityScore,
		DeveloperScore:      detail.DeveloperScore,
		LiquidityScore:      detail.LiquidityScore,
		PublicInterestScore: detail.PublicInterestScore,
		Market: domain.CommunityMarketData{
			CurrentPrice:   detail.MarketData.CurrentPrice["usd"],
			MarketCap:      detail.MarketData.MarketCap["usd"],
			Volume24h:      detail.MarketData.TotalVolume["usd"],
			PriceChange24h: detail.MarketData.PriceChange24h,
			PriceChange7d:  detail.MarketData.PriceChange7d,
			PriceChange30d: detail.MarketData.PriceChange30d,
			ATH:            detail.MarketData.ATH["usd"],
			ATHDate:        detail.MarketData.ATHDate["usd"],
			ATL:            detail.MarketData.ATL["usd"],
			ATLDate:        detail.MarketData.ATLDate["usd"],
		},
		Community: domain.CommunitySocials{
			TwitterFollowers:  detail.CommunityData.TwitterFollowers,
			RedditSubscribers: detail.CommunityData.RedditSubscribers,
			RedditActiveUsers: detail.CommunityData.RedditActive48h,
			TelegramUsers:     detail.CommunityData.TelegramUsers,
		},
		Developer: domain.DeveloperActivity{
			Forks:             detail.DeveloperData.Forks,
			Stars:             detail.DeveloperData.Stars,
			Subscribers:       detail.DeveloperData.Subscribers,
			CommitCount4Weeks: detail.DeveloperData.CommitCount4Wks,
		},
		Tickers: []domain.Ticker{},
		Chart: domain.ChartSeries{
			Prices:     [][]float64{},
			MarketCaps: [][]float64{},
			Volumes:    [][]float64{},
		},
		OHLC: [][]float64{},
	}

	if tickErr == nil {
		// Provider order is trusted: top 10 as received, no re-sort.
		for i, row := range tickers.Tickers {
			if i >= tickerCap {
				break
			}
			data.Tickers = append(data.Tickers, domain.Ticker{
				Base:              row.Base,
				Target:            row.Target,
				Market:            row.Market.Name,
				Last:              row.Last,
				Volume:            row.Volume,
				CostToMoveUpUSD:   row.CostToMoveUpUSD,
				CostToMoveDownUSD: row.CostToMoveDownUSD,
				SpreadPercentage:  row.SpreadPercentage,
				TrustScore:        row.TrustScore,
				IsStale:           row.IsStale,
			})
		}
	}

	if chartErr == nil {
		data.Chart = domain.ChartSeries{
			Prices:     lastPoints(chart.Prices, chartPointCap),
			MarketCaps: lastPoints(chart.MarketCaps, chartPointCap),
			Volumes:    lastPoints(chart.TotalVolumes, chartPointCap),
		}
	}

	if ohlcErr == nil && ohlc != nil {
		data.OHLC = ohlc
	}

	return data, nil
}

// lastPoints keeps the most recent n points of a [timestamp, value] series.
func lastPoints(series [][]float64, n int) [][]float64 {
	if len(series) <= n {
		if series == nil {
			return [][]float64{}
		}
		return series
	}
	return series[len(series)-n:]
}

func (p *CoinGeckoProvider) doGet(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
