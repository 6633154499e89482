package domain

import "time"

// AggregatedTokenRecord is the terminal entity of the pipeline: one record per
// token of the universe, with one field per provider. A provider that failed,
// returned nothing, or is disabled shows up as a nil field — the record itself
// is always present.
type AggregatedTokenRecord struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Chain   string `json:"chain"`

	DexPair    *DexPairData     `json:"dexscreener"`
	DexProfile *DexProfileData  `json:"dexProfile"`
	Market     *MarketData      `json:"coinmarketcap"`
	Community  *CommunityData   `json:"coingecko"`
	OnChain    *OnChainPoolData `json:"onchainDex"`
}

// RunResult is what one pipeline invocation produces: the full record list in
// configured order plus the soft errors swallowed along the way.
type RunResult struct {
	Records    []AggregatedTokenRecord `json:"tokens"`
	Errors     []string                `json:"errors,omitempty"`
	DurationMS int64                   `json:"duration_ms"`
}

// DexPairData is the normalized canonical trading pair from the DEX
// aggregator: the pair with the highest combined 24h buy+sell count.
type DexPairData struct {
	PriceUSD         string   `json:"priceUsd,omitempty"`
	PriceChange24h   float64  `json:"priceChange"`
	Volume24h        float64  `json:"volume"`
	LiquidityUSD     *float64 `json:"liquidity,omitempty"`
	FDV              *float64 `json:"fdv,omitempty"`
	PairAddress      string   `json:"pairAddress"`
	QuoteTokenSymbol string   `json:"quoteTokenSymbol"`
	URL              string   `json:"url"`
}

// SocialLink is one entry of a token profile's link list.
type SocialLink struct {
	Platform string `json:"platform"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// DexProfileData is the token's listing profile on the DEX aggregator.
type DexProfileData struct {
	Description string       `json:"description,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Header      string       `json:"header,omitempty"`
	SocialLinks []SocialLink `json:"socialLinks"`
}

// TokenMetadata is the market-data provider's metadata record, reduced to the
// fields the pipeline consumes. Provider-internal categorization (tags, tag
// groups, contract address lists) is dropped at decode time.
type TokenMetadata struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Category    string       `json:"category,omitempty"`
	Description string       `json:"description,omitempty"`
	Logo        string       `json:"logo,omitempty"`
	URLs        MetadataURLs `json:"urls"`
}

// MetadataURLs groups the URL lists attached to provider metadata. Chat and
// SourceCode feed identifier resolution.
type MetadataURLs struct {
	Website    []string `json:"website,omitempty"`
	Chat       []string `json:"chat,omitempty"`
	SourceCode []string `json:"source_code,omitempty"`
	Twitter    []string `json:"twitter,omitempty"`
	Explorer   []string `json:"explorer,omitempty"`
}

// HistoricalQuote is one point of the 30-day historical series.
type HistoricalQuote struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume24h float64   `json:"volume24h"`
	MarketCap float64   `json:"marketCap"`
}

// MarketPair is one active trading-pair listing from the market-data provider.
type MarketPair struct {
	ExchangeName string  `json:"exchangeName"`
	Pair         string  `json:"pair"`
	Category     string  `json:"category,omitempty"`
	Price        float64 `json:"price"`
	Volume24h    float64 `json:"volume24h"`
}

// ChannelStats is the messaging-platform member count for the token's chat.
type ChannelStats struct {
	URL         string `json:"url"`
	MemberCount int    `json:"memberCount"`
}

// ReleaseSummary describes the latest release of the token's repository.
type ReleaseSummary struct {
	Name          string    `json:"name"`
	TagName       string    `json:"tagName"`
	PublishedAt   time.Time `json:"publishedAt"`
	DownloadCount int       `json:"downloadCount"`
}

// RepoStats is the code-repository fragment. Stars/forks/issues/language come
// from the repository call; Contributors and the release fields degrade to
// zero values when their calls fail.
type RepoStats struct {
	URL           string          `json:"url"`
	Stars         int             `json:"stars"`
	Forks         int             `json:"forks"`
	OpenIssues    int             `json:"openIssues"`
	Language      string          `json:"language,omitempty"`
	LastPush      time.Time       `json:"lastPush"`
	Contributors  int             `json:"contributors"`
	LatestRelease *ReleaseSummary `json:"latestRelease"`
	TotalReleases int             `json:"totalReleases"`
}

// MarketData is the market-data provider fragment. Historical, MarketPairs,
// Telegram and Github are individually optional sub-fields: any of them may be
// nil/empty while the quote fields are populated.
type MarketData struct {
	Price             float64           `json:"price"`
	MarketCap         float64           `json:"marketCap"`
	Volume24h         float64           `json:"volume24h"`
	CirculatingSupply float64           `json:"circulatingSupply"`
	Metadata          *TokenMetadata    `json:"metadata,omitempty"`
	Historical        []HistoricalQuote `json:"historical,omitempty"`
	MarketPairs       []MarketPair      `json:"marketPairs,omitempty"`
	Telegram          *ChannelStats     `json:"telegram,omitempty"`
	Github            *RepoStats        `json:"github,omitempty"`
}

// Ticker is one exchange listing from the community-data provider.
type Ticker struct {
	Base              string  `json:"base"`
	Target            string  `json:"target"`
	Market            string  `json:"market"`
	Last              float64 `json:"last"`
	Volume            float64 `json:"volume"`
	CostToMoveUpUSD   float64 `json:"costToMoveUpUsd"`
	CostToMoveDownUSD float64 `json:"costToMoveDownUsd"`
	SpreadPercentage  float64 `json:"spreadPercentage"`
	TrustScore        string  `json:"trustScore"`
	IsStale           bool    `json:"isStale"`
}

// ChartSeries holds the 30-day market chart, truncated to the most recent 30
// points per series. Each point is [unix-ms, value].
type ChartSeries struct {
	Prices     [][]float64 `json:"prices"`
	MarketCaps [][]float64 `json:"marketCaps"`
	Volumes    [][]float64 `json:"volumes"`
}

// CommunityMarketData is the market slice of the community-data coin record.
type CommunityMarketData struct {
	CurrentPrice   float64 `json:"currentPrice"`
	MarketCap      float64 `json:"marketCap"`
	Volume24h      float64 `json:"volume24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	PriceChange7d  float64 `json:"priceChange7d"`
	PriceChange30d float64 `json:"priceChange30d"`
	ATH            float64 `json:"ath"`
	ATHDate        string  `json:"athDate,omitempty"`
	ATL            float64 `json:"atl"`
	ATLDate        string  `json:"atlDate,omitempty"`
}

// CommunitySocials is the social slice of the community-data coin record.
type CommunitySocials struct {
	TwitterFollowers  int `json:"twitterFollowers"`
	RedditSubscribers int `json:"redditSubscribers"`
	RedditActiveUsers int `json:"redditActiveUsers"`
	TelegramUsers     int `json:"telegramUsers"`
}

// DeveloperActivity is the developer slice of the community-data coin record.
type DeveloperActivity struct {
	Forks             int `json:"githubForks"`
	Stars             int `json:"githubStars"`
	Subscribers       int `json:"githubSubscribers"`
	CommitCount4Weeks int `json:"githubCommits4Weeks"`
}

// CommunityData is the community-data provider fragment. Tickers, Chart and
// OHLC degrade independently to empty on failure.
type CommunityData struct {
	ID                  string              `json:"id"`
	MarketCapRank       int                 `json:"marketCapRank"`
	CommunityScore      float64             `json:"communityScore"`
	DeveloperScore      float64             `json:"developerScore"`
	LiquidityScore      float64             `json:"liquidityScore"`
	PublicInterestScore float64             `json:"publicInterestScore"`
	Market              CommunityMarketData `json:"marketData"`
	Community           CommunitySocials    `json:"communityData"`
	Developer           DeveloperActivity   `json:"developerData"`
	Tickers             []Ticker            `json:"tickers"`
	Chart               ChartSeries         `json:"marketChart"`
	OHLC                [][]float64         `json:"ohlc"`
}

// OnChainTokenInfo is the indexer's token-level record.
type OnChainTokenInfo struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    int      `json:"decimals"`
	TotalSupply string   `json:"totalSupply,omitempty"`
	Description string   `json:"description,omitempty"`
	Websites    []string `json:"websites,omitempty"`
	CoinID      string   `json:"coingeckoId,omitempty"`
}

// PoolData is one DEX pool as reported by the on-chain indexer.
type PoolData struct {
	Address               string  `json:"address"`
	Name                  string  `json:"name"`
	BaseTokenPriceUSD     string  `json:"baseTokenPrice,omitempty"`
	QuoteTokenPriceUSD    string  `json:"quoteTokenPrice,omitempty"`
	PriceChangePercent24h string  `json:"priceChangePercentage24h,omitempty"`
	Volume24hUSD          string  `json:"volume24h,omitempty"`
	ReserveUSD            string  `json:"liquidity,omitempty"`
	DexName               string  `json:"dexName,omitempty"`
	FDVUSD                string  `json:"fdv,omitempty"`
	MarketCapUSD          string  `json:"marketCap,omitempty"`
	CreatedAt             string  `json:"poolCreatedAt,omitempty"`
}

// OnChainPoolData is the on-chain-indexer fragment: token info plus the top
// pools as received, capped to five.
type OnChainPoolData struct {
	TokenInfo *OnChainTokenInfo `json:"tokenInfo"`
	Pools     []PoolData        `json:"pools"`
}
