package domain

import "github.com/shopspring/decimal"

// Quote is the result of pricing a conversion: what the swap initiator
// receives and what the pool retains for its suppliers.
type Quote struct {
	Output      decimal.Decimal // amount paid out in the destination asset
	SupplierFee decimal.Decimal // retained in the pool, distributed pro rata
}

// Engine prices conversions with the constant-product formula. It is pure:
// it never reads or mutates pool state, balances are passed in.
type Engine struct {
	supplyFeeRate decimal.Decimal
}

// NewEngine creates an Engine with the given supply fee rate (e.g. 0.05).
func NewEngine(supplyFeeRate decimal.Decimal) *Engine {
	return &Engine{supplyFeeRate: supplyFeeRate}
}

// SupplyFeeRate returns the configured protocol fee rate.
func (e *Engine) SupplyFeeRate() decimal.Decimal {
	return e.supplyFeeRate
}

// Price computes the output of converting input units of the source asset
// into the destination asset, given the pool balances before the input is
// applied.
//
// The raw output follows from holding balanceFrom*balanceTo constant. The
// supply fee is carved out of the raw output; with rounding enabled the
// remainder lost to flooring is retained for suppliers as well, not burned.
// The destination asset's transaction fee, when applied, is consumed on the
// outgoing leg and is NOT part of the supplier fee.
//
// A non-positive input yields a zero quote. Both fee and rounding must be
// disabled for spot-price queries so displayed and sampled prices agree.
func (e *Engine) Price(input decimal.Decimal, balanceFrom, balanceTo decimal.Decimal, to *Asset, withTransactionFee, withRounding bool) Quote {
	if input.Sign() < 0 {
		return Quote{Output: decimal.Zero, SupplierFee: decimal.Zero}
	}

	newBalanceFrom := balanceFrom.Add(input)
	if newBalanceFrom.Sign() <= 0 {
		// Empty pool; there is nothing to price against.
		return Quote{Output: decimal.Zero, SupplierFee: decimal.Zero}
	}

	k := balanceFrom.Mul(balanceTo)
	rawOutput := balanceTo.Sub(k.Div(newBalanceFrom))

	output := rawOutput.Sub(rawOutput.Mul(e.supplyFeeRate))
	if withRounding {
		output = output.Floor()
	}

	supplierFee := rawOutput.Sub(output)

	if withTransactionFee {
		output = output.Sub(to.TransactionFee(output))
	}

	return Quote{Output: output, SupplierFee: supplierFee}
}

// SpotPrice returns the unrounded, fee-free price of one unit of the source
// asset in the destination asset.
func (e *Engine) SpotPrice(balanceFrom, balanceTo decimal.Decimal, to *Asset) decimal.Decimal {
	return e.Price(decimal.NewFromInt(1), balanceFrom, balanceTo, to, false, false).Output
}
