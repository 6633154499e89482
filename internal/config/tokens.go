package config

import (
	"fmt"
	"os"
	"strings"

	"tokenlens/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoadUniverse reads the token universe from the given YAML file. An empty
// path falls back to the built-in default universe.
func LoadUniverse(path string) (domain.Universe, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultUniverse(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Universe{}, fmt.Errorf("read tokens config %q: %w", path, err)
	}

	var u domain.Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return domain.Universe{}, fmt.Errorf("parse tokens config %q: %w", path, err)
	}
	if u.Size() == 0 {
		return domain.Universe{}, fmt.Errorf("tokens config %q defines no tokens", path)
	}

	for _, c := range u.Chains {
		if strings.TrimSpace(c.Chain) == "" {
			return domain.Universe{}, fmt.Errorf("tokens config %q has a chain entry without an id", path)
		}
		for _, t := range c.Tokens {
			if t.Address == "" || t.Symbol == "" {
				return domain.Universe{}, fmt.Errorf("tokens config %q: token %q on %s is missing address or symbol", path, t.Name, c.Chain)
			}
		}
	}

	return u, nil
}

// DefaultUniverse is used when no tokens file is configured.
func DefaultUniverse() domain.Universe {
	return domain.Universe{
		Chains: []domain.ChainTokens{
			{
				Chain: domain.ChainEthereum,
				Tokens: []domain.TokenDescriptor{
					{Name: "Chainlink", Symbol: "LINK", Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", CMCID: 1975},
					{Name: "Uniswap", Symbol: "UNI", Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"},
				},
			},
			{
				Chain: domain.ChainBase,
				Tokens: []domain.TokenDescriptor{
					{Name: "Aerodrome Finance", Symbol: "AERO", Address: "0x940181a94A35A4569E4529A3CDfB74e38FD98631"},
				},
			},
		},
	}
}
