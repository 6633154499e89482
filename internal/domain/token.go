package domain

// Chain identifiers used throughout the pipeline. They match the keys of the
// token-universe config file and the network map of the on-chain indexer.
const (
	ChainEthereum  = "ethereum"
	ChainPolygon   = "polygon"
	ChainBSC       = "bsc"
	ChainAvalanche = "avalanche"
	ChainArbitrum  = "arbitrum"
	ChainOptimism  = "optimism"
	ChainBase      = "base"
	ChainFlow      = "flow"
)

// TokenDescriptor identifies one token of the configured universe. A token is
// unique per (Chain, Address) pair. CMCID is an optional pre-assigned
// CoinMarketCap id that skips the metadata-by-address lookup.
type TokenDescriptor struct {
	Name    string `json:"name" yaml:"name"`
	Symbol  string `json:"symbol" yaml:"symbol"`
	Address string `json:"address" yaml:"address"`
	Chain   string `json:"chain" yaml:"-"`
	CMCID   int    `json:"cmcId,omitempty" yaml:"cmc_id"`
}

// CoinMatch is one community-data search hit, consumed by coin-id resolution.
type CoinMatch struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ChainTokens is one chain's slice of the token universe, in configured order.
type ChainTokens struct {
	Chain  string            `yaml:"id"`
	Tokens []TokenDescriptor `yaml:"tokens"`
}

// Universe is the full configured token universe. Chain order and per-chain
// token order define the order of the pipeline output.
type Universe struct {
	Chains []ChainTokens `yaml:"chains"`
}

// Size returns the total number of tokens across all chains.
func (u Universe) Size() int {
	n := 0
	for _, c := range u.Chains {
		n += len(c.Tokens)
	}
	return n
}

// Flatten returns all tokens in configured iteration order, with the Chain
// field filled in from the owning chain entry.
func (u Universe) Flatten() []TokenDescriptor {
	out := make([]TokenDescriptor, 0, u.Size())
	for _, c := range u.Chains {
		for _, t := range c.Tokens {
			t.Chain = c.Chain
			out = append(out, t)
		}
	}
	return out
}
