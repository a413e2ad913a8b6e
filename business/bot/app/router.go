package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	exchangeApp "github.com/sbswap/swappool/business/exchange/app"
	poolApp "github.com/sbswap/swappool/business/pool/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	supplyApp "github.com/sbswap/swappool/business/supply/app"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// Router dispatches chat traffic: transfer announcements from the asset
// bots go to the exchange, "!" commands go to their handlers, everything
// else is ignored.
type Router struct {
	pool     *poolApp.Ledger
	engine   *poolDomain.Engine
	sampler  *poolApp.Sampler
	supply   *supplyApp.SupplierLedger
	exchange *exchangeApp.ExchangeService
	charts   ChartRenderer
	log      logger.LoggerInterface
}

// NewRouter creates a Router.
func NewRouter(pool *poolApp.Ledger, engine *poolDomain.Engine, sampler *poolApp.Sampler, supply *supplyApp.SupplierLedger, exchange *exchangeApp.ExchangeService, charts ChartRenderer, log logger.LoggerInterface) *Router {
	return &Router{
		pool:     pool,
		engine:   engine,
		sampler:  sampler,
		supply:   supply,
		exchange: exchange,
		charts:   charts,
		log:      log,
	}
}

// OnMessage handles one inbound chat message.
func (r *Router) OnMessage(ctx context.Context, msg InboundMessage, reply exchangeApp.Reporter) error {
	if asset, ok := r.pool.AssetByBotUser(msg.AuthorTag); ok {
		return r.onTransfer(ctx, msg, asset, reply)
	}

	fields := strings.Fields(msg.Content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "!") {
		return nil
	}

	switch fields[0] {
	case "!hodl":
		return r.onHodl(ctx, reply)
	case "!supply":
		return r.onSupply(ctx, msg.AuthorID, reply)
	case "!balance":
		return r.onBalance(ctx, msg.AuthorID, reply)
	case "!suppliers":
		return r.onSuppliers(ctx, reply)
	case "!withdraw":
		return r.onWithdraw(ctx, msg.AuthorID, fields, reply)
	case "!forget":
		return r.onForget(ctx, msg.AuthorID, fields, reply)
	}
	return nil
}

// OnReaction handles an emoji reaction. A reaction on one of the bot's own
// messages with an asset emoji credits one unit of that asset.
func (r *Router) OnReaction(ctx context.Context, reaction Reaction) error {
	if !reaction.OnOwnMessage {
		return nil
	}
	return r.exchange.HandleReaction(ctx, reaction.EmojiName)
}

func (r *Router) onTransfer(ctx context.Context, msg InboundMessage, asset *poolDomain.Asset, reply exchangeApp.Reporter) error {
	amount, err := asset.ParseTransferAmount(msg.Content)
	if errors.Is(err, poolDomain.ErrNotTransfer) {
		return nil
	}
	if err != nil {
		r.log.Warn(ctx, "unreadable transfer announcement",
			"asset", asset.Name(), "error", err)
		return nil
	}

	if msg.ActorID == "" {
		r.log.Warn(ctx, "transfer announcement without an originating user",
			"asset", asset.Name(), "amount", amount)
		return nil
	}

	return r.exchange.HandleInboundTransfer(ctx, exchangeApp.InboundTransfer{
		SenderID: msg.ActorID,
		Asset:    asset,
		Amount:   amount,
	}, reply)
}

func (r *Router) onHodl(ctx context.Context, reply exchangeApp.Reporter) error {
	first, second := r.pool.Assets()
	balanceA, balanceB := r.pool.Balances()

	price1 := r.engine.SpotPrice(balanceA, balanceB, second)
	price2 := r.engine.SpotPrice(balanceB, balanceA, first)

	content := fmt.Sprintf(
		"1 %s %s is worth %s %s %s\n1 %s %s is worth %s %s %s\n\nThere are %s %s %s and %s %s %s in the swapping pool",
		first.Emoji(), first.Name(), price1.StringFixed(4), second.Emoji(), second.Name(),
		second.Emoji(), second.Name(), price2.StringFixed(4), first.Emoji(), first.Name(),
		balanceA, first.Emoji(), first.Name(), balanceB, second.Emoji(), second.Name())

	series, err := r.sampler.BuildSeries(ctx)
	if err != nil {
		r.log.Warn(ctx, "failed to build history series", "error", err)
		return reply.Reply(ctx, content)
	}

	priceURL, supplyURL, err := r.charts.RenderCharts(ctx, series)
	if err != nil {
		r.log.Warn(ctx, "failed to render charts", "error", err)
		return reply.Reply(ctx, content)
	}

	return reply.Reply(ctx, content+fmt.Sprintf("\n-# [1](%s) [2](%s)", priceURL, supplyURL))
}

func (r *Router) onSupply(ctx context.Context, userID string, reply exchangeApp.Reporter) error {
	r.supply.OpenWindow(userID)

	rate := r.engine.SupplyFeeRate().Mul(decimal.NewFromInt(100))
	return reply.Reply(ctx, fmt.Sprintf(
		"Anything you send in the next %d seconds will be added to the supply. You will earn part of the %s%% fee for each trade",
		int(r.supply.WindowTimeout()), rate))
}

func (r *Router) onBalance(ctx context.Context, userID string, reply exchangeApp.Reporter) error {
	positions, err := r.supply.Positions(ctx, userID)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return reply.Reply(ctx, "You aren't a grifter yet")
	}

	lines := make([]string, 0, len(positions))
	for _, pos := range positions {
		emoji := r.assetEmoji(pos.Asset)
		lines = append(lines, fmt.Sprintf("%s %s: %s collecting fees worth %s %s %s",
			emoji, pos.Asset, pos.Contributed, pos.FeesCollected.StringFixed(6), emoji, pos.Asset))
	}
	return reply.Reply(ctx, "Your supply:\n"+strings.Join(lines, "\n"))
}

func (r *Router) onSuppliers(ctx context.Context, reply exchangeApp.Reporter) error {
	positions, err := r.supply.AllPositions(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, pos := range positions {
		if !pos.Contributed.IsPositive() && !pos.FeesCollected.IsPositive() {
			continue
		}

		share := decimal.Zero
		if balance := r.pool.GetBalance(pos.Asset); balance.IsPositive() {
			share = pos.Contributed.Div(balance).Mul(decimal.NewFromInt(100))
		}

		fmt.Fprintf(&b, "<@%s>: %s %s with fees of %s(%s%%)\n",
			pos.UserID, pos.Asset, pos.Contributed, pos.FeesCollected.StringFixed(6), share.StringFixed(2))
	}

	if b.Len() == 0 {
		return reply.Reply(ctx, "Nobody is supplying yet")
	}
	return reply.Reply(ctx, b.String())
}

func (r *Router) onWithdraw(ctx context.Context, userID string, args []string, reply exchangeApp.Reporter) error {
	if len(args) != 3 {
		return reply.Reply(ctx, "Must specify the coin and amount to withdraw")
	}

	asset, ok := r.pool.AssetByName(args[1])
	if !ok {
		return reply.Reply(ctx, "Invalid coin")
	}

	var requested int64
	switch {
	case strings.EqualFold(args[2], "all"):
		requested = supplyApp.WithdrawAll
	default:
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return reply.Reply(ctx, "Invalid amount")
		}
		if n <= 0 {
			return reply.Reply(ctx, "Amount must be greater than 0")
		}
		requested = n
	}

	receipt, err := r.exchange.Withdraw(ctx, userID, asset.Name(), requested)
	switch {
	case apperror.IsCode(err, apperror.CodeInsufficientSupply):
		return reply.Reply(ctx, fmt.Sprintf("You don't have enough %s %s in the supply", asset.Emoji(), asset.Name()))
	case apperror.IsCode(err, apperror.CodeInsufficientLiquidity):
		return reply.Reply(ctx, fmt.Sprintf("Not enough %s %s left in the swapping pool to withdraw right now", asset.Emoji(), asset.Name()))
	case apperror.IsCode(err, apperror.CodeInvalidInput):
		return reply.Reply(ctx, "Amount must be greater than 0")
	case err != nil:
		return err
	}

	content := fmt.Sprintf("Withdrew %s %s %s from the supply", receipt.Total, asset.Emoji(), asset.Name())
	if !receipt.Fee.IsZero() {
		content += fmt.Sprintf(" with %s %s %s transaction fee", receipt.Fee, asset.Emoji(), asset.Name())
	}
	return reply.Reply(ctx, content)
}

func (r *Router) onForget(ctx context.Context, userID string, args []string, reply exchangeApp.Reporter) error {
	if len(args) > 2 {
		return reply.Reply(ctx, "Too many arguments")
	}
	force := len(args) == 2 && args[1] == "force"

	err := r.exchange.Forget(ctx, userID, force)
	if apperror.IsCode(err, apperror.CodeInvalidInput) {
		return reply.Reply(ctx, "You must have less than 1 balance in both coins to be forgotten")
	}
	if err != nil {
		return err
	}
	return reply.Reply(ctx, "You have been forgotten")
}

func (r *Router) assetEmoji(name string) string {
	if asset, ok := r.pool.AssetByName(name); ok {
		return asset.Emoji()
	}
	return name
}
