package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	poolApp "github.com/sbswap/swappool/business/pool/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	supplyApp "github.com/sbswap/swappool/business/supply/app"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

const meterName = "swappool/exchange"

// exchangeMetrics holds OTEL metric instruments.
type exchangeMetrics struct {
	swaps         metric.Int64Counter
	contributions metric.Int64Counter
	refunds       metric.Int64Counter
	rejections    metric.Int64Counter
	withdrawals   metric.Int64Counter
}

// ExchangeService orchestrates the compound operations that touch both the
// pool and the supplier ledger: swaps, contributions, withdrawals and
// forgets. All of them run inside one mutex so quote, balance mutation and
// fee distribution observe a consistent pool state.
type ExchangeService struct {
	pool     *poolApp.Ledger
	engine   *poolDomain.Engine
	supply   *supplyApp.SupplierLedger
	outbound Outbound
	log      logger.LoggerInterface

	mu      sync.Mutex
	metrics *exchangeMetrics
}

// NewExchangeService creates an ExchangeService.
func NewExchangeService(pool *poolApp.Ledger, engine *poolDomain.Engine, supply *supplyApp.SupplierLedger, outbound Outbound, log logger.LoggerInterface) (*ExchangeService, error) {
	s := &ExchangeService{
		pool:     pool,
		engine:   engine,
		supply:   supply,
		outbound: outbound,
		log:      log,
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

// initMetrics initializes OTEL metric instruments.
func (s *ExchangeService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &exchangeMetrics{}

	s.metrics.swaps, err = meter.Int64Counter(
		"swaps_total",
		metric.WithDescription("Total completed swaps"),
		metric.WithUnit("{swap}"),
	)
	if err != nil {
		return err
	}

	s.metrics.contributions, err = meter.Int64Counter(
		"contributions_total",
		metric.WithDescription("Total liquidity contributions"),
		metric.WithUnit("{contribution}"),
	)
	if err != nil {
		return err
	}

	s.metrics.refunds, err = meter.Int64Counter(
		"refunds_total",
		metric.WithDescription("Total inputs sent back because the output rounded to zero"),
		metric.WithUnit("{refund}"),
	)
	if err != nil {
		return err
	}

	s.metrics.rejections, err = meter.Int64Counter(
		"rejections_total",
		metric.WithDescription("Total swaps rejected for insufficient destination liquidity"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return err
	}

	s.metrics.withdrawals, err = meter.Int64Counter(
		"withdrawals_total",
		metric.WithDescription("Total supplier withdrawals"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// HandleInboundTransfer processes a transfer of pool assets to the bot.
// With the sender's contribution window open the amount joins the supply;
// otherwise it is swapped into the counterpart asset.
func (s *ExchangeService) HandleInboundTransfer(ctx context.Context, transfer InboundTransfer, reply Reporter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.supply.WindowOpen(transfer.SenderID) {
		return s.contribute(ctx, transfer, reply)
	}
	return s.swap(ctx, transfer, reply)
}

func (s *ExchangeService) contribute(ctx context.Context, transfer InboundTransfer, reply Reporter) error {
	if err := s.supply.RecordContribution(ctx, transfer.SenderID, transfer.Asset, transfer.Amount); err != nil {
		return err
	}

	s.metrics.contributions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("asset", transfer.Asset.Name())))

	rate := s.engine.SupplyFeeRate().Mul(decimal.NewFromInt(100))
	return reply.Reply(ctx, fmt.Sprintf(
		"Added %d %s %s to the supply. You will receive a %s%% fee for each trade",
		transfer.Amount, transfer.Asset.Emoji(), transfer.Asset.Name(), rate))
}

func (s *ExchangeService) swap(ctx context.Context, transfer InboundTransfer, reply Reporter) error {
	from := transfer.Asset
	to := s.pool.Other(from)
	input := decimal.NewFromInt(transfer.Amount)

	balanceFrom := s.pool.GetBalance(from.Name())
	balanceTo := s.pool.GetBalance(to.Name())

	quote := s.engine.Price(input, balanceFrom, balanceTo, to, true, true)
	output := quote.Output

	// The source asset's fee schedule prices the output leg here, while the
	// quote already carries the destination fee. Fixing this would reprice
	// every swap, so the accounting stays as it has always been.
	fee := from.TransactionFee(output)

	header := fmt.Sprintf("%d %s %s converted to %s %s %s",
		transfer.Amount, from.Emoji(), from.Name(), output, to.Emoji(), to.Name())

	switch {
	// The debit below takes output plus fee, so the check must cover both;
	// checking output alone would commit the input credit and then fail the
	// debit whenever balanceTo lands between them.
	case output.IsPositive() && balanceTo.GreaterThanOrEqual(output.Add(fee)):
		if _, err := s.pool.AdjustBalance(ctx, from.Name(), input); err != nil {
			return err
		}
		if _, err := s.pool.AdjustBalance(ctx, to.Name(), output.Add(fee).Neg()); err != nil {
			return err
		}

		s.metrics.swaps.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from.Name()),
			attribute.String("to", to.Name()),
		))

		content := header + fmt.Sprintf("\n%s %s %s fee given to our generous suppliers",
			quote.SupplierFee.StringFixed(6), to.Emoji(), to.Name())
		if err := reply.Reply(ctx, content); err != nil {
			s.log.Error(ctx, "swap reply failed", "error", err)
		}

		if err := s.outbound.Send(ctx, to, transfer.SenderID, output.IntPart()); err != nil {
			return err
		}

		return s.supply.DistributeFee(ctx, to.Name(), quote.SupplierFee)

	case output.IsPositive():
		s.metrics.rejections.Add(ctx, 1,
			metric.WithAttributes(attribute.String("to", to.Name())))

		return reply.Reply(ctx, fmt.Sprintf(
			"Not enough supply of %s %s in the swapping pool to give out %s %s %s",
			to.Emoji(), to.Name(), output, to.Emoji(), to.Name()))

	default:
		refund := input.Sub(fee)
		if !refund.IsPositive() {
			return reply.Reply(ctx, header+fmt.Sprintf(
				"\nNot sending your %s %s back due to %s %s %s transaction fee",
				from.Emoji(), from.Name(), fee, to.Emoji(), to.Name()))
		}

		content := header + fmt.Sprintf("\nSending your %s %s back", from.Emoji(), from.Name())
		if !fee.IsZero() {
			content += fmt.Sprintf(" with %s %s %s transaction fee", fee, to.Emoji(), to.Name())
		}
		if err := reply.Reply(ctx, content); err != nil {
			s.log.Error(ctx, "refund reply failed", "error", err)
		}

		s.metrics.refunds.Add(ctx, 1,
			metric.WithAttributes(attribute.String("from", from.Name())))

		return s.outbound.Send(ctx, from, transfer.SenderID, refund.IntPart())
	}
}

// Withdraw removes the user's supply of the named asset and sends it to
// them. The amount to deliver comes from the supplier ledger's receipt.
func (s *ExchangeService) Withdraw(ctx context.Context, userID, assetName string, requested int64) (supplyApp.WithdrawReceipt, error) {
	asset, ok := s.pool.AssetByName(assetName)
	if !ok {
		return supplyApp.WithdrawReceipt{}, apperror.New(apperror.CodeUnknownAsset, apperror.WithContext(assetName))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.supply.Withdraw(ctx, userID, asset, requested)
	if err != nil {
		return supplyApp.WithdrawReceipt{}, err
	}

	s.metrics.withdrawals.Add(ctx, 1,
		metric.WithAttributes(attribute.String("asset", asset.Name())))

	return receipt, s.outbound.Send(ctx, asset, userID, receipt.Requested.IntPart())
}

// Forget erases the user's supplier records.
func (s *ExchangeService) Forget(ctx context.Context, userID string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supply.Forget(ctx, userID, force)
}

// HandleReaction credits one unit of the asset matching the reacted emoji.
// Unknown emojis are ignored.
func (s *ExchangeService) HandleReaction(ctx context.Context, emojiName string) error {
	asset, ok := s.pool.AssetByEmojiName(emojiName)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.pool.AdjustBalance(ctx, asset.Name(), decimal.NewFromInt(1))
	return err
}

// SpotPrice returns the current fee-free price of one unit of the named
// asset in its counterpart.
func (s *ExchangeService) SpotPrice(assetName string) (decimal.Decimal, error) {
	from, ok := s.pool.AssetByName(assetName)
	if !ok {
		return decimal.Zero, apperror.New(apperror.CodeUnknownAsset, apperror.WithContext(assetName))
	}
	to := s.pool.Other(from)

	balanceFrom := s.pool.GetBalance(from.Name())
	balanceTo := s.pool.GetBalance(to.Name())
	return s.engine.SpotPrice(balanceFrom, balanceTo, to), nil
}
