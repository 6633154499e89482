package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestDexScreenerSearchPairsPicksMostActive(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/latest/dex/search") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			return jsonResponse(`{"pairs":[
				{"pairAddress":"A","priceUsd":"1.0","txns":{"h24":{"buys":6,"sells":4}}},
				{"pairAddress":"B","priceUsd":"2.0","txns":{"h24":{"buys":20,"sells":5}}},
				{"pairAddress":"C","priceUsd":"3.0","txns":{"h24":{"buys":3,"sells":4}}}
			]}`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	pair, err := provider.SearchPairs(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair == nil || pair.PairAddress != "B" {
		t.Fatalf("expected pair B, got %+v", pair)
	}
	if pair.PriceUSD != "2.0" {
		t.Fatalf("unexpected price: %s", pair.PriceUSD)
	}
}

func TestDexScreenerSearchPairsTieKeepsFirst(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(`{"pairs":[
				{"pairAddress":"first","txns":{"h24":{"buys":5,"sells":5}}},
				{"pairAddress":"second","txns":{"h24":{"buys":7,"sells":3}}}
			]}`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	pair, err := provider.SearchPairs(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.PairAddress != "first" {
		t.Fatalf("expected tie to keep the first pair, got %s", pair.PairAddress)
	}
}

func TestDexScreenerSearchPairsNoPairs(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(`{"pairs":[]}`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	pair, err := provider.SearchPairs(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair != nil {
		t.Fatalf("expected nil pair, got %+v", pair)
	}
}

func TestDexScreenerTokenProfileMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/token-profiles/latest/v1") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			return jsonResponse(`[
				{"tokenAddress":"0xDEAD","description":"other"},
				{"tokenAddress":"0xABCdef","description":"ours","icon":"icon.png",
				 "links":[{"type":"twitter","url":"https://x.com/tok"}]}
			]`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	profile, err := provider.TokenProfile(context.Background(), "0xabcDEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil || profile.Description != "ours" {
		t.Fatalf("expected matching profile, got %+v", profile)
	}
	if len(profile.SocialLinks) != 1 || profile.SocialLinks[0].Platform != "twitter" {
		t.Fatalf("unexpected social links: %+v", profile.SocialLinks)
	}
}

func TestDexScreenerTokenProfileNoMatch(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(`[{"tokenAddress":"0xDEAD"}]`), nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	profile, err := provider.TokenProfile(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil profile, got %+v", profile)
	}
}

func TestDexScreenerAPIErrorSurfacesStatus(t *testing.T) {
	t.Parallel()

	provider := NewDexScreenerProvider(noopTracer(), "http://example")
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("slow down")),
				Header:     make(http.Header),
			}, nil
		}),
	}
	provider.limiter = rate.NewLimiter(rate.Inf, 1)

	_, err := provider.SearchPairs(context.Background(), "0xabc")
	if err == nil || !strings.Contains(err.Error(), "dexscreener API error 429") {
		t.Fatalf("expected API error, got %v", err)
	}
}
