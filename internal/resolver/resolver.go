// Package resolver derives provider-specific identifiers from a token's
// descriptor and previously fetched metadata. Every resolution is
// precision-over-recall: an ambiguous match is reported as not found, never
// guessed.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"tokenlens/internal/domain"
)

// RepoRef identifies a repository on the code-hosting platform.
type RepoRef struct {
	Owner string
	Name  string
}

var repoURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// RepoFromURLs scans a metadata URL list for a recognized code-hosting URL and
// extracts owner and repository name. A trailing ".git" suffix is stripped.
func RepoFromURLs(urls []string) (RepoRef, bool) {
	for _, u := range urls {
		m := repoURLPattern.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		name := strings.TrimSuffix(m[2], ".git")
		if m[1] == "" || name == "" {
			continue
		}
		return RepoRef{Owner: m[1], Name: name}, true
	}
	return RepoRef{}, false
}

// ChannelLinkKind classifies a messaging-platform URL. Each kind requires a
// different lookup strategy in the channel adapter.
type ChannelLinkKind int

const (
	ChannelUnrecognized ChannelLinkKind = iota
	ChannelDirectHandle
	ChannelHashInvite
	ChannelPlusInvite
)

func (k ChannelLinkKind) String() string {
	switch k {
	case ChannelDirectHandle:
		return "direct-handle"
	case ChannelHashInvite:
		return "hash-invite"
	case ChannelPlusInvite:
		return "plus-invite"
	default:
		return "unrecognized"
	}
}

// ChannelLink is a classified messaging-platform URL. Handle carries the
// channel username for direct links; Hash carries the invite hash for the two
// invite variants.
type ChannelLink struct {
	Kind   ChannelLinkKind
	URL    string
	Handle string
	Hash   string
}

// ClassifyChannelURL classifies one URL. URLs that do not point at the
// messaging platform come back as ChannelUnrecognized.
func ClassifyChannelURL(rawURL string) ChannelLink {
	link := ChannelLink{Kind: ChannelUnrecognized, URL: rawURL}

	idx := strings.Index(rawURL, "t.me/")
	if idx < 0 {
		return link
	}
	rest := rawURL[idx+len("t.me/"):]

	switch {
	case strings.HasPrefix(rest, "joinchat/"):
		hash := trimPathTail(strings.TrimPrefix(rest, "joinchat/"))
		if hash == "" {
			return link
		}
		link.Kind = ChannelHashInvite
		link.Hash = hash
	case strings.HasPrefix(rest, "+"):
		hash := trimPathTail(strings.TrimPrefix(rest, "+"))
		if hash == "" {
			return link
		}
		link.Kind = ChannelPlusInvite
		link.Hash = hash
	default:
		handle := trimPathTail(rest)
		handle = strings.TrimPrefix(handle, "@")
		if handle == "" {
			return link
		}
		link.Kind = ChannelDirectHandle
		link.Handle = handle
	}
	return link
}

// ChannelFromURLs scans a metadata URL list and returns the first recognized
// messaging-platform link.
func ChannelFromURLs(urls []string) (ChannelLink, bool) {
	for _, u := range urls {
		link := ClassifyChannelURL(u)
		if link.Kind != ChannelUnrecognized {
			return link, true
		}
	}
	return ChannelLink{Kind: ChannelUnrecognized}, false
}

// trimPathTail drops trailing path segments and query parameters.
func trimPathTail(s string) string {
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// MarketDataID resolves the market-data provider id: a pre-assigned id on the
// descriptor wins, otherwise the id of the fetched metadata entry is used.
func MarketDataID(token domain.TokenDescriptor, meta *domain.TokenMetadata) (int, bool) {
	if token.CMCID > 0 {
		return token.CMCID, true
	}
	if meta != nil && meta.ID > 0 {
		return meta.ID, true
	}
	return 0, false
}

// CoinSearcher is the slice of the community-data provider the resolver needs.
type CoinSearcher interface {
	Search(ctx context.Context, query string) ([]domain.CoinMatch, error)
}

// CoinID searches the community-data provider by token name and filters the
// candidates by exact case-insensitive symbol match. No match means no id:
// an approximate name hit is never accepted.
func CoinID(ctx context.Context, searcher CoinSearcher, name, symbol string) (string, bool, error) {
	matches, err := searcher.Search(ctx, name)
	if err != nil {
		return "", false, err
	}
	for _, match := range matches {
		if strings.EqualFold(match.Symbol, symbol) {
			return match.ID, true, nil
		}
	}
	return "", false, nil
}
