// Package sqlite implements the pool persistence port on the embedded database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/pool/app"
	"github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/storage"
)

// Store persists balances and history samples. Decimals are stored as text
// so no precision is lost.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over the shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ app.Store = (*Store)(nil)

// Balance returns the persisted balance for the asset, zero if absent.
func (s *Store) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM coins WHERE name = ?`, asset).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for %s: %w", asset, err)
	}
	return balance, nil
}

// SaveBalance durably writes the asset's balance in its own transaction.
func (s *Store) SaveBalance(ctx context.Context, asset string, balance decimal.Decimal) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO coins (name, balance) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET balance = excluded.balance`,
			asset, balance.String())
		return err
	})
}

// LatestSampleTime returns the timestamp of the most recent history sample.
func (s *Store) LatestSampleTime(ctx context.Context) (int64, bool, error) {
	var t int64
	err := s.db.QueryRowContext(ctx, `SELECT time FROM history ORDER BY time DESC LIMIT 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query latest sample time: %w", err)
	}
	return t, true, nil
}

// AppendSamples appends history samples in one transaction.
func (s *Store) AppendSamples(ctx context.Context, samples []domain.HistorySample) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, sample := range samples {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO history (time, coin_name, price, supply) VALUES (?, ?, ?, ?)`,
				sample.Time, sample.Asset, sample.Price.String(), sample.Supply.String())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SamplesByAsset returns all samples for the asset ordered by time.
func (s *Store) SamplesByAsset(ctx context.Context, asset string) ([]domain.HistorySample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, price, supply FROM history WHERE coin_name = ? ORDER BY time`, asset)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.HistorySample
	for rows.Next() {
		var (
			t             int64
			price, supply string
		)
		if err := rows.Scan(&t, &price, &supply); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}

		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt sample price: %w", err)
		}
		sup, err := decimal.NewFromString(supply)
		if err != nil {
			return nil, fmt.Errorf("corrupt sample supply: %w", err)
		}

		samples = append(samples, domain.HistorySample{Time: t, Asset: asset, Price: p, Supply: sup})
	}
	return samples, rows.Err()
}
