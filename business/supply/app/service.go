package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	poolApp "github.com/sbswap/swappool/business/pool/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/business/supply/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// WithdrawAll is the sentinel amount meaning the supplier's full principal.
const WithdrawAll int64 = -1

// WithdrawReceipt describes a completed withdrawal: what the user receives
// and what the transfer fee on top of it was.
type WithdrawReceipt struct {
	Requested decimal.Decimal
	Fee       decimal.Decimal
	Total     decimal.Decimal
}

// SupplierLedger tracks contributions and accrued fee shares and handles
// withdrawal accounting. Compound operations that also touch the pool
// ledger are serialized by the exchange service's critical section.
type SupplierLedger struct {
	store  Store
	pool   *poolApp.Ledger
	window *domain.ContributionWindow
	log    logger.LoggerInterface
}

// NewSupplierLedger creates a SupplierLedger.
func NewSupplierLedger(store Store, pool *poolApp.Ledger, window *domain.ContributionWindow, log logger.LoggerInterface) *SupplierLedger {
	return &SupplierLedger{
		store:  store,
		pool:   pool,
		window: window,
		log:    log,
	}
}

// OpenWindow opens the user's contribution window: their next transfer
// within the timeout is treated as a contribution, not a swap.
func (s *SupplierLedger) OpenWindow(userID string) {
	s.window.Open(userID)
}

// WindowOpen reports whether the user's contribution window is open.
func (s *SupplierLedger) WindowOpen(userID string) bool {
	return s.window.IsOpen(userID)
}

// WindowTimeout returns the configured contribution window duration.
func (s *SupplierLedger) WindowTimeout() float64 {
	return s.window.Timeout().Seconds()
}

// RecordContribution credits the pool with the transferred amount and adds
// it to the supplier's position, creating the record if absent.
func (s *SupplierLedger) RecordContribution(ctx context.Context, userID string, asset *poolDomain.Asset, amount int64) error {
	contributed := decimal.NewFromInt(amount)

	if _, err := s.pool.AdjustBalance(ctx, asset.Name(), contributed); err != nil {
		return err
	}

	if err := s.store.AddContribution(ctx, userID, asset.Name(), contributed); err != nil {
		return apperror.Store(fmt.Sprintf("record contribution for %s", userID), err)
	}

	s.log.Info(ctx, "liquidity contributed", "user", userID, "asset", asset.Name(), "amount", amount)
	return nil
}

// DistributeFee splits totalFee across the asset's suppliers pro rata to
// their contributed amounts. Must run inside the same critical section as
// the swap that produced the fee.
//
// A zero contributed total cannot arise from a swap that needed liquidity;
// if it does, the distribution is dropped with a fatal-level log instead of
// dividing by zero.
func (s *SupplierLedger) DistributeFee(ctx context.Context, asset string, totalFee decimal.Decimal) error {
	suppliers, err := s.store.ByAsset(ctx, asset)
	if err != nil {
		return apperror.Store(fmt.Sprintf("load suppliers for %s", asset), err)
	}

	totalContributed := decimal.Zero
	for _, sup := range suppliers {
		totalContributed = totalContributed.Add(sup.Contributed)
	}

	if !totalContributed.IsPositive() {
		s.log.Error(ctx, "fee distribution with no contributions",
			"fatal", true, "asset", asset, "fee", totalFee.String())
		return nil
	}

	for _, sup := range suppliers {
		gained := domain.ProRataShare(sup.Contributed, totalContributed, totalFee)
		if err := s.store.AddFees(ctx, sup.UserID, asset, gained); err != nil {
			return apperror.Store(fmt.Sprintf("credit fees to %s", sup.UserID), err)
		}
	}

	return nil
}

// Withdraw removes requested units (or the full principal when requested is
// WithdrawAll) of the asset from the supplier's position. The transfer fee
// is charged on top: accrued fees are consumed before principal, and the
// pool is debited by the combined amount. The returned receipt carries the
// amount to deliver to the user.
func (s *SupplierLedger) Withdraw(ctx context.Context, userID string, asset *poolDomain.Asset, requested int64) (WithdrawReceipt, error) {
	supplier, ok, err := s.store.Get(ctx, userID, asset.Name())
	if err != nil {
		return WithdrawReceipt{}, apperror.Store(fmt.Sprintf("load supplier %s", userID), err)
	}
	if !ok {
		return WithdrawReceipt{}, apperror.InsufficientSupply(
			fmt.Sprintf("%s has no %s in the supply", userID, asset.Name()))
	}

	var amount decimal.Decimal
	switch {
	case requested == WithdrawAll:
		amount = supplier.Contributed
	case requested > 0:
		amount = decimal.NewFromInt(requested)
	default:
		return WithdrawReceipt{}, apperror.InvalidInput("withdrawal amount must be greater than 0")
	}

	fee := asset.TransactionFee(amount)
	totalNeeded := amount.Add(fee)

	plan, err := domain.PlanWithdrawal(supplier, totalNeeded)
	if err != nil {
		return WithdrawReceipt{}, apperror.InsufficientSupply(
			fmt.Sprintf("%s needs %s %s but has %s", userID, totalNeeded, asset.Name(), supplier.Total()))
	}

	// Swaps drain balances while stakes stay fixed, so the pool can owe a
	// supplier more than it holds. The balance must cover the debit before
	// the position is overwritten, or a failed debit would erase principal.
	if s.pool.GetBalance(asset.Name()).LessThan(totalNeeded) {
		return WithdrawReceipt{}, apperror.InsufficientLiquidity(
			fmt.Sprintf("pool holds %s %s, withdrawal needs %s",
				s.pool.GetBalance(asset.Name()), asset.Name(), totalNeeded))
	}

	if err := s.store.SetPosition(ctx, plan); err != nil {
		return WithdrawReceipt{}, apperror.Store(fmt.Sprintf("update supplier %s", userID), err)
	}

	if _, err := s.pool.AdjustBalance(ctx, asset.Name(), totalNeeded.Neg()); err != nil {
		return WithdrawReceipt{}, err
	}

	s.log.Info(ctx, "supply withdrawn",
		"user", userID, "asset", asset.Name(), "amount", amount.String(), "fee", fee.String())

	return WithdrawReceipt{Requested: amount, Fee: fee, Total: totalNeeded}, nil
}

// Forget deletes all of the user's supplier records. Without force this is
// only allowed when both pool balances round up to zero; with force any
// fractional stake still owed to the user is abandoned.
func (s *SupplierLedger) Forget(ctx context.Context, userID string, force bool) error {
	if !force {
		balanceA, balanceB := s.pool.Balances()
		if !balanceA.Ceil().IsZero() || !balanceB.Ceil().IsZero() {
			return apperror.InvalidInput("pool balances must round to zero to be forgotten")
		}
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return apperror.Store(fmt.Sprintf("forget %s", userID), err)
	}

	s.log.Info(ctx, "supplier forgotten", "user", userID, "force", force)
	return nil
}

// Positions returns the user's supplier records across both assets.
func (s *SupplierLedger) Positions(ctx context.Context, userID string) ([]domain.Supplier, error) {
	suppliers, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Store(fmt.Sprintf("load positions for %s", userID), err)
	}
	return suppliers, nil
}

// AllPositions returns every supplier record, for the roster listing.
func (s *SupplierLedger) AllPositions(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.store.All(ctx)
	if err != nil {
		return nil, apperror.Store("load supplier roster", err)
	}
	return suppliers, nil
}
