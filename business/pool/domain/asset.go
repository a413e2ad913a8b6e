// Package domain contains the core domain types for the pool context.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// Parse errors returned by Variant.ParseTransferAmount. A non-matching
// message and a matching-but-malformed one are distinct conditions; both
// result in a no-op for the caller but must stay distinguishable.
var (
	ErrNotTransfer       = errors.New("pool: message is not a transfer")
	ErrMalformedTransfer = errors.New("pool: transfer message is malformed")
)

// Variant is the capability set that differs between the two pool assets:
// how transfer fees are charged and how the asset's bot announces transfers.
type Variant interface {
	// TransactionFee returns the fee charged on an outgoing transfer of amount.
	TransactionFee(amount decimal.Decimal) decimal.Decimal

	// ParseTransferAmount extracts the transferred quantity from a chat
	// message. Returns ErrNotTransfer when the message does not look like
	// a transfer and ErrMalformedTransfer when it does but the amount
	// cannot be read.
	ParseTransferAmount(text string) (int64, error)
}

// PercentCeilFee charges a percentage fee rounded up to the next whole unit.
type PercentCeilFee struct {
	Rate    decimal.Decimal
	Pattern *regexp.Regexp
}

// TransactionFee returns ceil(amount * rate).
func (v PercentCeilFee) TransactionFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(v.Rate).Ceil()
}

// ParseTransferAmount extracts the amount from the bot's transfer announcement.
func (v PercentCeilFee) ParseTransferAmount(text string) (int64, error) {
	return parseTransferAmount(v.Pattern, text)
}

// NoFee charges no transfer fee.
type NoFee struct {
	Pattern *regexp.Regexp
}

// TransactionFee always returns zero.
func (v NoFee) TransactionFee(amount decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// ParseTransferAmount extracts the amount from the bot's transfer announcement.
func (v NoFee) ParseTransferAmount(text string) (int64, error) {
	return parseTransferAmount(v.Pattern, text)
}

func parseTransferAmount(pattern *regexp.Regexp, text string) (int64, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrNotTransfer
	}
	if len(m) < 2 {
		return 0, fmt.Errorf("%w: pattern has no amount group", ErrMalformedTransfer)
	}
	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedTransfer, err)
	}
	return amount, nil
}

// Asset represents one of the two fungible tokens tracked by the pool.
// Identity is the name; everything else is display metadata plus the
// per-asset behavior carried by the Variant.
type Asset struct {
	name      string
	emoji     string
	emojiName string
	botUser   string
	variant   Variant
}

// NewAsset creates a new Asset.
func NewAsset(name, emoji, emojiName, botUser string, variant Variant) *Asset {
	if name == "" {
		panic("pool: empty asset name")
	}
	if variant == nil {
		panic("pool: nil asset variant")
	}
	return &Asset{
		name:      name,
		emoji:     emoji,
		emojiName: emojiName,
		botUser:   botUser,
		variant:   variant,
	}
}

// Name returns the unique asset name (e.g. "SBCoin").
func (a *Asset) Name() string { return a.name }

// Emoji returns the display emoji markup for chat messages.
func (a *Asset) Emoji() string { return a.emoji }

// EmojiName returns the bare emoji identifier used in reactions.
func (a *Asset) EmojiName() string { return a.emojiName }

// BotUser returns the chat user tag of the asset's own bot.
func (a *Asset) BotUser() string { return a.botUser }

// TransactionFee returns the asset-specific fee on an outgoing transfer.
func (a *Asset) TransactionFee(amount decimal.Decimal) decimal.Decimal {
	return a.variant.TransactionFee(amount)
}

// ParseTransferAmount delegates to the asset's variant.
func (a *Asset) ParseTransferAmount(text string) (int64, error) {
	return a.variant.ParseTransferAmount(text)
}

// String returns a human-readable representation.
func (a *Asset) String() string { return a.name }
