// Package app contains the exchange application service and its ports.
package app

import (
	"context"

	poolDomain "github.com/sbswap/swappool/business/pool/domain"
)

// InboundTransfer is a transfer of pool assets to the bot, already parsed
// out of the asset bot's announcement message.
type InboundTransfer struct {
	SenderID string
	Asset    *poolDomain.Asset
	Amount   int64
}

// Reporter delivers the outcome of an operation back to where it was
// requested, typically as a reply in the originating channel.
type Reporter interface {
	Reply(ctx context.Context, content string) error
}

// Outbound sends pool assets to a user by invoking the asset bot's
// transfer command.
type Outbound interface {
	Send(ctx context.Context, asset *poolDomain.Asset, recipientID string, amount int64) error
}
