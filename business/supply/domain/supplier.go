// Package domain contains the core domain types for the supply context.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientSupply is returned when a withdrawal exceeds the
// supplier's total stake in the asset.
var ErrInsufficientSupply = errors.New("supply: insufficient stake for withdrawal")

// Supplier is one liquidity contributor's position in one asset.
// Contributed is whole units; FeesCollected accrues fractional fee shares.
type Supplier struct {
	UserID        string
	Asset         string
	Contributed   decimal.Decimal
	FeesCollected decimal.Decimal
}

// Total returns the supplier's full stake: principal plus accrued fees.
func (s Supplier) Total() decimal.Decimal {
	return s.Contributed.Add(s.FeesCollected)
}

// PlanWithdrawal computes the position after withdrawing totalNeeded.
//
// Accrued fees are consumed before principal: when the fee credit covers the
// whole withdrawal only FeesCollected shrinks; otherwise the whole-unit part
// of the fee credit is spent, principal absorbs the remainder and the
// sub-unit fee fraction is preserved rather than discarded.
func PlanWithdrawal(s Supplier, totalNeeded decimal.Decimal) (Supplier, error) {
	if s.Total().LessThan(totalNeeded) {
		return Supplier{}, ErrInsufficientSupply
	}

	if s.FeesCollected.GreaterThanOrEqual(totalNeeded) {
		s.FeesCollected = s.FeesCollected.Sub(totalNeeded)
		return s, nil
	}

	wholeFees := s.FeesCollected.Floor()
	s.Contributed = s.Contributed.Sub(totalNeeded.Sub(wholeFees))
	s.FeesCollected = s.FeesCollected.Sub(wholeFees)
	return s, nil
}

// ProRataShare returns contributed/total * fee, the supplier's cut of a
// distributed protocol fee.
func ProRataShare(contributed, totalContributed, fee decimal.Decimal) decimal.Decimal {
	return contributed.Div(totalContributed).Mul(fee)
}
