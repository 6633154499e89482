package provider

import (
	"context"
	"strings"
	"testing"

	"tokenlens/internal/resolver"
)

func TestTelegramMemberCountInviteLinksUnsupported(t *testing.T) {
	t.Parallel()

	provider := &TelegramProvider{tracer: noopTracer()}

	for _, link := range []resolver.ChannelLink{
		{Kind: resolver.ChannelHashInvite, URL: "https://t.me/joinchat/AbCdEf123", Hash: "AbCdEf123"},
		{Kind: resolver.ChannelPlusInvite, URL: "https://t.me/+XyZ987", Hash: "XyZ987"},
	} {
		_, err := provider.MemberCount(context.Background(), link)
		if err == nil || !strings.Contains(err.Error(), "authenticated user session") {
			t.Fatalf("%s: expected invite-unsupported error, got %v", link.URL, err)
		}
	}
}

func TestTelegramMemberCountUnrecognizedLink(t *testing.T) {
	t.Parallel()

	provider := &TelegramProvider{tracer: noopTracer()}

	_, err := provider.MemberCount(context.Background(), resolver.ChannelLink{
		Kind: resolver.ChannelUnrecognized,
		URL:  "https://discord.gg/something",
	})
	if err == nil || !strings.Contains(err.Error(), "unrecognized channel link") {
		t.Fatalf("expected unrecognized-link error, got %v", err)
	}
}
