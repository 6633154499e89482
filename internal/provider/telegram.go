package provider

import (
	"context"
	"fmt"
	"time"

	"tokenlens/internal/resolver"

	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

// TelegramProvider resolves channel member counts through the Telegram Bot
// API. Direct handle links are looked up by username; invite links need an
// authenticated user session the Bot API cannot provide, so both invite
// variants report an error and the caller degrades them to absent.
type TelegramProvider struct {
	bot    *tele.Bot
	tracer trace.Tracer
}

// NewTelegramProvider creates the provider. Construct it only when a bot
// token is configured.
func NewTelegramProvider(tracer trace.Tracer, token string) (*TelegramProvider, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramProvider{bot: bot, tracer: tracer}, nil
}

// MemberCount returns the member count for a classified channel link, routing
// each link kind to its lookup strategy.
func (p *TelegramProvider) MemberCount(ctx context.Context, link resolver.ChannelLink) (int, error) {
	_, span := p.tracer.Start(ctx, "telegram.member-count")
	defer span.End()

	switch link.Kind {
	case resolver.ChannelDirectHandle:
		return p.lookupHandle(link.Handle)
	case resolver.ChannelHashInvite, resolver.ChannelPlusInvite:
		return p.lookupInvite(link.Hash)
	default:
		return 0, fmt.Errorf("unrecognized channel link %q", link.URL)
	}
}

func (p *TelegramProvider) lookupHandle(handle string) (int, error) {
	chat, err := p.bot.ChatByUsername("@" + handle)
	if err != nil {
		return 0, fmt.Errorf("lookup channel @%s: %w", handle, err)
	}
	count, err := p.bot.Len(chat)
	if err != nil {
		return 0, fmt.Errorf("member count for @%s: %w", handle, err)
	}
	return count, nil
}

func (p *TelegramProvider) lookupInvite(hash string) (int, error) {
	// Checking an invite hash is an MTProto user-session operation; the Bot
	// API has no equivalent call.
	return 0, fmt.Errorf("invite link %q requires an authenticated user session", hash)
}
