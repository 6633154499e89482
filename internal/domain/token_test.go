package domain

import "testing"

func TestUniverseFlattenPreservesOrderAndFillsChain(t *testing.T) {
	t.Parallel()

	u := Universe{Chains: []ChainTokens{
		{Chain: ChainEthereum, Tokens: []TokenDescriptor{
			{Name: "Chainlink", Symbol: "LINK"},
			{Name: "Uniswap", Symbol: "UNI"},
		}},
		{Chain: ChainBase, Tokens: []TokenDescriptor{
			{Name: "Aerodrome", Symbol: "AERO"},
		}},
	}}

	tokens := u.Flatten()
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	want := []struct{ symbol, chain string }{
		{"LINK", ChainEthereum},
		{"UNI", ChainEthereum},
		{"AERO", ChainBase},
	}
	for i, w := range want {
		if tokens[i].Symbol != w.symbol || tokens[i].Chain != w.chain {
			t.Fatalf("index %d: expected %s on %s, got %s on %s",
				i, w.symbol, w.chain, tokens[i].Symbol, tokens[i].Chain)
		}
	}
}

func TestUniverseSize(t *testing.T) {
	t.Parallel()

	var empty Universe
	if empty.Size() != 0 {
		t.Fatalf("expected 0, got %d", empty.Size())
	}

	u := Universe{Chains: []ChainTokens{
		{Chain: ChainEthereum, Tokens: make([]TokenDescriptor, 2)},
		{Chain: ChainBSC, Tokens: make([]TokenDescriptor, 3)},
	}}
	if u.Size() != 5 {
		t.Fatalf("expected 5, got %d", u.Size())
	}
}
