// Package aggregator assembles one AggregatedTokenRecord per token by
// sequencing the provider adapters in dependency order and merging their
// fragments. Provider failures never escape: they are logged, recorded as
// soft errors, and the affected field stays nil.
package aggregator

import (
	"context"
	"fmt"
	"log"

	"tokenlens/internal/domain"
	"tokenlens/internal/provider"
	"tokenlens/internal/resolver"

	"go.opentelemetry.io/otel/trace"
)

const historicalQuoteDays = 30

type DexReader interface {
	SearchPairs(ctx context.Context, address string) (*domain.DexPairData, error)
	TokenProfile(ctx context.Context, address string) (*domain.DexProfileData, error)
}

type MarketDataReader interface {
	MetadataByAddress(ctx context.Context, address string) (*domain.TokenMetadata, error)
	QuoteByID(ctx context.Context, id int) (*provider.Quote, error)
	HistoricalQuotes(ctx context.Context, id, count int) ([]domain.HistoricalQuote, error)
	MarketPairs(ctx context.Context, id int) ([]domain.MarketPair, error)
}

type RepoReader interface {
	RepoStats(ctx context.Context, owner, repo string) (*domain.RepoStats, error)
}

type CommunityReader interface {
	resolver.CoinSearcher
	CoinData(ctx context.Context, id string) (*domain.CommunityData, error)
}

type PoolReader interface {
	PoolData(ctx context.Context, chain, address string) (*domain.OnChainPoolData, error)
}

type ChannelReader interface {
	MemberCount(ctx context.Context, link resolver.ChannelLink) (int, error)
}

// Aggregator holds the adapter set for one pipeline run. The community, pool
// and channel readers are optional: a nil reader is a disabled capability,
// and its field is absent on every record.
type Aggregator struct {
	tracer    trace.Tracer
	dex       DexReader
	market    MarketDataReader
	repos     RepoReader
	community CommunityReader
	pools     PoolReader
	channels  ChannelReader
}

func New(
	tracer trace.Tracer,
	dex DexReader,
	market MarketDataReader,
	repos RepoReader,
	community CommunityReader,
	pools PoolReader,
	channels ChannelReader,
) *Aggregator {
	return &Aggregator{
		tracer:    tracer,
		dex:       dex,
		market:    market,
		repos:     repos,
		community: community,
		pools:     pools,
		channels:  channels,
	}
}

// Aggregate builds the record for one token. The returned error strings are
// the soft failures swallowed along the way; the record itself is always
// returned.
func (a *Aggregator) Aggregate(ctx context.Context, token domain.TokenDescriptor) (domain.AggregatedTokenRecord, []string) {
	ctx, span := a.tracer.Start(ctx, "aggregator.aggregate-token")
	defer span.End()

	record := domain.AggregatedTokenRecord{
		Name:    token.Name,
		Symbol:  token.Symbol,
		Address: token.Address,
		Chain:   token.Chain,
	}
	var errs []string
	soft := func(source string, err error) {
		log.Printf("%s data unavailable for %s on %s: %v", source, token.Symbol, token.Chain, err)
		errs = append(errs, fmt.Sprintf("%s:%s/%s: %v", source, token.Chain, token.Symbol, err))
	}

	// DEX pair and profile first: neither depends on resolution.
	if pair, err := a.dex.SearchPairs(ctx, token.Address); err != nil {
		soft("dexscreener", err)
	} else {
		record.DexPair = pair
	}
	if profile, err := a.dex.TokenProfile(ctx, token.Address); err != nil {
		soft("dex-profile", err)
	} else {
		record.DexProfile = profile
	}

	// Market data next: its metadata feeds repository and channel resolution.
	record.Market = a.marketData(ctx, token, soft)

	// Community and on-chain data depend on resolved identifiers only, not on
	// each other.
	if a.community != nil {
		record.Community = a.communityData(ctx, token, soft)
	}
	if a.pools != nil {
		if pools, err := a.pools.PoolData(ctx, token.Chain, token.Address); err != nil {
			soft("onchain", err)
		} else {
			record.OnChain = pools
		}
	}

	return record, errs
}

func (a *Aggregator) marketData(ctx context.Context, token domain.TokenDescriptor, soft func(string, error)) *domain.MarketData {
	meta, err := a.market.MetadataByAddress(ctx, token.Address)
	if err != nil {
		soft("coinmarketcap", err)
		return nil
	}

	id, ok := resolver.MarketDataID(token, meta)
	if !ok {
		soft("coinmarketcap", fmt.Errorf("no market-data id for %s", token.Address))
		return nil
	}

	quote, err := a.market.QuoteByID(ctx, id)
	if err != nil {
		soft("coinmarketcap", err)
		return nil
	}

	data := &domain.MarketData{
		Price:             quote.Price,
		MarketCap:         quote.MarketCap,
		Volume24h:         quote.Volume24h,
		CirculatingSupply: quote.CirculatingSupply,
		Metadata:          meta,
	}

	// The historical and market-pair sub-fetches are individually optional: a
	// failure degrades only its own sub-field.
	if historical, err := a.market.HistoricalQuotes(ctx, id, historicalQuoteDays); err != nil {
		soft("coinmarketcap-historical", err)
	} else {
		data.Historical = historical
	}
	if pairs, err := a.market.MarketPairs(ctx, id); err != nil {
		soft("coinmarketcap-pairs", err)
	} else {
		data.MarketPairs = pairs
	}

	if a.channels != nil {
		if link, found := resolver.ChannelFromURLs(meta.URLs.Chat); found {
			if count, err := a.channels.MemberCount(ctx, link); err != nil {
				soft("telegram", err)
			} else if count > 0 {
				data.Telegram = &domain.ChannelStats{URL: link.URL, MemberCount: count}
			}
		}
	}

	if a.repos != nil {
		if ref, found := resolver.RepoFromURLs(meta.URLs.SourceCode); found {
			if stats, err := a.repos.RepoStats(ctx, ref.Owner, ref.Name); err != nil {
				soft("github", err)
			} else {
				data.Github = stats
			}
		}
	}

	return data
}

func (a *Aggregator) communityData(ctx context.Context, token domain.TokenDescriptor, soft func(string, error)) *domain.CommunityData {
	id, found, err := resolver.CoinID(ctx, a.community, token.Name, token.Symbol)
	if err != nil {
		soft("coingecko", err)
		return nil
	}
	if !found {
		log.Printf("no community-data match for %s (%s), skipping", token.Name, token.Symbol)
		return nil
	}

	data, err := a.community.CoinData(ctx, id)
	if err != nil {
		soft("coingecko", err)
		return nil
	}
	return data
}
