package app

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// fakeStore is an in-memory pool store.
type fakeStore struct {
	balances map[string]decimal.Decimal
	samples  []domain.HistorySample
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{balances: make(map[string]decimal.Decimal)}
}

func (s *fakeStore) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return s.balances[asset], nil
}

func (s *fakeStore) SaveBalance(ctx context.Context, asset string, balance decimal.Decimal) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.balances[asset] = balance
	return nil
}

func (s *fakeStore) LatestSampleTime(ctx context.Context) (int64, bool, error) {
	if len(s.samples) == 0 {
		return 0, false, nil
	}
	return s.samples[len(s.samples)-1].Time, true, nil
}

func (s *fakeStore) AppendSamples(ctx context.Context, samples []domain.HistorySample) error {
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *fakeStore) SamplesByAsset(ctx context.Context, asset string) ([]domain.HistorySample, error) {
	var out []domain.HistorySample
	for _, sample := range s.samples {
		if sample.Asset == asset {
			out = append(out, sample)
		}
	}
	return out, nil
}

func testAssets(t *testing.T) (*domain.Asset, *domain.Asset) {
	t.Helper()
	first := domain.NewAsset("SBCoin", ":sbcoin:", "sbcoin", "SBCoin#6868", domain.PercentCeilFee{
		Rate:    decimal.NewFromFloat(0.02),
		Pattern: regexp.MustCompile(`sent (\d+) SBCoin`),
	})
	second := domain.NewAsset("DABCoin", ":dabcoin:", "dabcoin", "DABCoin#1056", domain.NoFee{
		Pattern: regexp.MustCompile(`transferred (\d+) DABCoin`),
	})
	return first, second
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestLedger(t *testing.T, store *fakeStore) *Ledger {
	t.Helper()
	first, second := testAssets(t)
	ledger, err := NewLedger(context.Background(), first, second, store, testLogger())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return ledger
}

func TestNewLedgerRestoresBalances(t *testing.T) {
	store := newFakeStore()
	store.balances["SBCoin"] = decimal.NewFromInt(700)
	store.balances["DABCoin"] = decimal.NewFromInt(300)

	ledger := newTestLedger(t, store)

	if got := ledger.GetBalance("SBCoin"); !got.Equal(decimal.NewFromInt(700)) {
		t.Errorf("SBCoin balance = %s, want 700", got)
	}
	if got := ledger.GetBalance("DABCoin"); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("DABCoin balance = %s, want 300", got)
	}
}

func TestAdjustBalancePersistsBeforeVisible(t *testing.T) {
	store := newFakeStore()
	ledger := newTestLedger(t, store)

	next, err := ledger.AdjustBalance(context.Background(), "SBCoin", decimal.NewFromInt(150))
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if !next.Equal(decimal.NewFromInt(150)) {
		t.Errorf("next = %s, want 150", next)
	}
	if got := store.balances["SBCoin"]; !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("persisted = %s, want 150", got)
	}
}

func TestAdjustBalanceRejectsNegative(t *testing.T) {
	store := newFakeStore()
	store.balances["SBCoin"] = decimal.NewFromInt(10)
	ledger := newTestLedger(t, store)

	_, err := ledger.AdjustBalance(context.Background(), "SBCoin", decimal.NewFromInt(-11))
	if !apperror.IsCode(err, apperror.CodeInvariantViolation) {
		t.Fatalf("err = %v, want invariant violation", err)
	}

	// Neither memory nor store may have moved.
	if got := ledger.GetBalance("SBCoin"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance = %s, want 10", got)
	}
	if got := store.balances["SBCoin"]; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("persisted = %s, want 10", got)
	}
}

func TestAdjustBalanceToExactlyZero(t *testing.T) {
	store := newFakeStore()
	store.balances["DABCoin"] = decimal.NewFromInt(5)
	ledger := newTestLedger(t, store)

	next, err := ledger.AdjustBalance(context.Background(), "DABCoin", decimal.NewFromInt(-5))
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if !next.IsZero() {
		t.Errorf("next = %s, want 0", next)
	}
}

func TestAdjustBalanceUnknownAsset(t *testing.T) {
	ledger := newTestLedger(t, newFakeStore())

	_, err := ledger.AdjustBalance(context.Background(), "DOGE", decimal.NewFromInt(1))
	if !apperror.IsCode(err, apperror.CodeUnknownAsset) {
		t.Fatalf("err = %v, want unknown asset", err)
	}
}

func TestAdjustBalanceStoreFailureLeavesMemory(t *testing.T) {
	store := newFakeStore()
	store.balances["SBCoin"] = decimal.NewFromInt(10)
	ledger := newTestLedger(t, store)

	store.saveErr = errors.New("disk full")
	_, err := ledger.AdjustBalance(context.Background(), "SBCoin", decimal.NewFromInt(5))
	if !apperror.IsCode(err, apperror.CodeStoreError) {
		t.Fatalf("err = %v, want store error", err)
	}
	if got := ledger.GetBalance("SBCoin"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance = %s, want 10 after failed save", got)
	}
}

func TestObserversSeeCommittedChanges(t *testing.T) {
	ledger := newTestLedger(t, newFakeStore())

	var gotAsset string
	var gotBalance decimal.Decimal
	ledger.Subscribe(func(asset string, balance decimal.Decimal) {
		gotAsset = asset
		gotBalance = balance
	})

	if _, err := ledger.AdjustBalance(context.Background(), "SBCoin", decimal.NewFromInt(9)); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if gotAsset != "SBCoin" || !gotBalance.Equal(decimal.NewFromInt(9)) {
		t.Errorf("observer saw %s=%s, want SBCoin=9", gotAsset, gotBalance)
	}
}

func TestAssetLookups(t *testing.T) {
	ledger := newTestLedger(t, newFakeStore())
	first, second := ledger.Assets()

	if a, ok := ledger.AssetByName("sbcoin"); !ok || a != first {
		t.Error("AssetByName should match case-insensitively")
	}
	if _, ok := ledger.AssetByName("DOGE"); ok {
		t.Error("AssetByName matched an unknown asset")
	}
	if a, ok := ledger.AssetByBotUser("DABCoin#1056"); !ok || a != second {
		t.Error("AssetByBotUser failed for DABCoin's bot")
	}
	if a, ok := ledger.AssetByEmojiName("sbcoin"); !ok || a != first {
		t.Error("AssetByEmojiName failed for sbcoin")
	}
	if ledger.Other(first) != second || ledger.Other(second) != first {
		t.Error("Other should return the pair counterpart")
	}
}
