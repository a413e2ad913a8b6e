// Package app contains the chat command router for the bot context.
package app

import (
	"context"

	poolDomain "github.com/sbswap/swappool/business/pool/domain"
)

// InboundMessage is a chat message the router may act on.
type InboundMessage struct {
	AuthorID  string // message author's user ID
	AuthorTag string // "Name#1234" tag, used to recognize the asset bots
	ActorID   string // user whose command triggered the message, when present
	Content   string
}

// Reaction is an emoji reaction on one of the bot's own messages.
type Reaction struct {
	EmojiName    string
	OnOwnMessage bool
}

// ChartRenderer turns a price/supply series into two shareable chart URLs:
// one for the price and one for both supplies.
type ChartRenderer interface {
	RenderCharts(ctx context.Context, series []poolDomain.SeriesPoint) (priceURL, supplyURL string, err error)
}
