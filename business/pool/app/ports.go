// Package app contains application services and port definitions for the pool context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/pool/domain"
)

// Store is the persistence port for pool balances and history samples.
// Implementations must make each call atomic.
type Store interface {
	// Balance returns the persisted balance for the asset, zero if absent.
	Balance(ctx context.Context, asset string) (decimal.Decimal, error)

	// SaveBalance durably writes the asset's balance.
	SaveBalance(ctx context.Context, asset string, balance decimal.Decimal) error

	// LatestSampleTime returns the timestamp of the most recent history
	// sample, with ok=false when no samples exist yet.
	LatestSampleTime(ctx context.Context) (int64, bool, error)

	// AppendSamples appends history samples; samples are never updated or deleted.
	AppendSamples(ctx context.Context, samples []domain.HistorySample) error

	// SamplesByAsset returns all samples for the asset ordered by time.
	SamplesByAsset(ctx context.Context, asset string) ([]domain.HistorySample, error)
}
