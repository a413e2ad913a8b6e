// Package sqlite implements the supplier persistence port on the embedded database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/supply/app"
	"github.com/sbswap/swappool/business/supply/domain"
	"github.com/sbswap/swappool/internal/storage"
)

// Store persists supplier records keyed by (user_id, coin_name).
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over the shared database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ app.Store = (*Store)(nil)

// AddContribution upserts amount onto the supplier's contributed total.
// The addition happens in decimal inside the transaction; balances are
// stored as text and must never pass through floating point.
func (s *Store) AddContribution(ctx context.Context, userID, asset string, amount decimal.Decimal) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, ok, err := readPosition(ctx, tx, userID, asset)
		if err != nil {
			return err
		}
		if !ok {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO suppliers (user_id, coin_name, amount, fees_collected)
				VALUES (?, ?, ?, '0')`,
				userID, asset, amount.String())
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE suppliers SET amount = ? WHERE user_id = ? AND coin_name = ?`,
			current.Contributed.Add(amount).String(), userID, asset)
		return err
	})
}

// Get returns the supplier record, ok=false when absent.
func (s *Store) Get(ctx context.Context, userID, asset string) (domain.Supplier, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT amount, fees_collected FROM suppliers WHERE user_id = ? AND coin_name = ?`,
		userID, asset)

	var amount, fees string
	err := row.Scan(&amount, &fees)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Supplier{}, false, nil
	}
	if err != nil {
		return domain.Supplier{}, false, fmt.Errorf("query supplier: %w", err)
	}

	supplier, err := buildSupplier(userID, asset, amount, fees)
	if err != nil {
		return domain.Supplier{}, false, err
	}
	return supplier, true, nil
}

// ByAsset returns all supplier records for the asset.
func (s *Store) ByAsset(ctx context.Context, asset string) ([]domain.Supplier, error) {
	return s.query(ctx, `
		SELECT user_id, coin_name, amount, fees_collected FROM suppliers WHERE coin_name = ?`, asset)
}

// ByUser returns all supplier records for the user.
func (s *Store) ByUser(ctx context.Context, userID string) ([]domain.Supplier, error) {
	return s.query(ctx, `
		SELECT user_id, coin_name, amount, fees_collected FROM suppliers WHERE user_id = ?`, userID)
}

// All returns every supplier record ordered by asset then amount descending.
func (s *Store) All(ctx context.Context) ([]domain.Supplier, error) {
	return s.query(ctx, `
		SELECT user_id, coin_name, amount, fees_collected FROM suppliers
		ORDER BY coin_name, CAST(amount AS REAL) DESC`)
}

// AddFees credits gained onto the supplier's fees_collected.
func (s *Store) AddFees(ctx context.Context, userID, asset string, gained decimal.Decimal) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, ok, err := readPosition(ctx, tx, userID, asset)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no supplier record for %s/%s", userID, asset)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE suppliers SET fees_collected = ? WHERE user_id = ? AND coin_name = ?`,
			current.FeesCollected.Add(gained).String(), userID, asset)
		return err
	})
}

// SetPosition overwrites the supplier's contributed and fees_collected.
func (s *Store) SetPosition(ctx context.Context, sup domain.Supplier) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE suppliers SET amount = ?, fees_collected = ?
			WHERE user_id = ? AND coin_name = ?`,
			sup.Contributed.String(), sup.FeesCollected.String(), sup.UserID, sup.Asset)
		return err
	})
}

// DeleteUser removes all records for the user.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE user_id = ?`, userID)
		return err
	})
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var userID, asset, amount, fees string
		if err := rows.Scan(&userID, &asset, &amount, &fees); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		supplier, err := buildSupplier(userID, asset, amount, fees)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

func readPosition(ctx context.Context, tx *sql.Tx, userID, asset string) (domain.Supplier, bool, error) {
	var amount, fees string
	err := tx.QueryRowContext(ctx, `
		SELECT amount, fees_collected FROM suppliers WHERE user_id = ? AND coin_name = ?`,
		userID, asset).Scan(&amount, &fees)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Supplier{}, false, nil
	}
	if err != nil {
		return domain.Supplier{}, false, fmt.Errorf("query supplier: %w", err)
	}
	supplier, err := buildSupplier(userID, asset, amount, fees)
	if err != nil {
		return domain.Supplier{}, false, err
	}
	return supplier, true, nil
}

func buildSupplier(userID, asset, amount, fees string) (domain.Supplier, error) {
	contributed, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("corrupt contributed amount for %s/%s: %w", userID, asset, err)
	}
	collected, err := decimal.NewFromString(fees)
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("corrupt fees_collected for %s/%s: %w", userID, asset, err)
	}
	return domain.Supplier{
		UserID:        userID,
		Asset:         asset,
		Contributed:   contributed,
		FeesCollected: collected,
	}, nil
}
