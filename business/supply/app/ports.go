// Package app contains application services and port definitions for the supply context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/supply/domain"
)

// Store is the persistence port for supplier records. The (user, asset)
// pair is unique; rows are created on first contribution.
type Store interface {
	// AddContribution upserts amount onto the supplier's contributed total.
	AddContribution(ctx context.Context, userID, asset string, amount decimal.Decimal) error

	// Get returns the supplier record, ok=false when absent.
	Get(ctx context.Context, userID, asset string) (domain.Supplier, bool, error)

	// ByAsset returns all supplier records for the asset.
	ByAsset(ctx context.Context, asset string) ([]domain.Supplier, error)

	// ByUser returns all supplier records for the user across assets.
	ByUser(ctx context.Context, userID string) ([]domain.Supplier, error)

	// All returns every supplier record ordered by asset then contributed
	// amount descending.
	All(ctx context.Context) ([]domain.Supplier, error)

	// AddFees credits gained onto the supplier's fees_collected.
	AddFees(ctx context.Context, userID, asset string, gained decimal.Decimal) error

	// SetPosition overwrites the supplier's contributed and fees_collected.
	SetPosition(ctx context.Context, s domain.Supplier) error

	// DeleteUser removes all records for the user across both assets.
	DeleteUser(ctx context.Context, userID string) error
}
