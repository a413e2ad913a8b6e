package app

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	poolApp "github.com/sbswap/swappool/business/pool/app"
	poolDomain "github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/business/supply/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// fakePoolStore satisfies the pool persistence port in memory.
type fakePoolStore struct {
	balances map[string]decimal.Decimal
}

func (s *fakePoolStore) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return s.balances[asset], nil
}

func (s *fakePoolStore) SaveBalance(ctx context.Context, asset string, balance decimal.Decimal) error {
	s.balances[asset] = balance
	return nil
}

func (s *fakePoolStore) LatestSampleTime(ctx context.Context) (int64, bool, error) {
	return 0, false, nil
}

func (s *fakePoolStore) AppendSamples(ctx context.Context, samples []poolDomain.HistorySample) error {
	return nil
}

func (s *fakePoolStore) SamplesByAsset(ctx context.Context, asset string) ([]poolDomain.HistorySample, error) {
	return nil, nil
}

// fakeSupplyStore keeps supplier records keyed by user and asset.
type fakeSupplyStore struct {
	records map[string]map[string]domain.Supplier // userID -> asset -> record
}

func newFakeSupplyStore() *fakeSupplyStore {
	return &fakeSupplyStore{records: make(map[string]map[string]domain.Supplier)}
}

func (s *fakeSupplyStore) AddContribution(ctx context.Context, userID, asset string, amount decimal.Decimal) error {
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]domain.Supplier)
	}
	rec, ok := s.records[userID][asset]
	if !ok {
		rec = domain.Supplier{UserID: userID, Asset: asset, Contributed: decimal.Zero, FeesCollected: decimal.Zero}
	}
	rec.Contributed = rec.Contributed.Add(amount)
	s.records[userID][asset] = rec
	return nil
}

func (s *fakeSupplyStore) Get(ctx context.Context, userID, asset string) (domain.Supplier, bool, error) {
	rec, ok := s.records[userID][asset]
	return rec, ok, nil
}

func (s *fakeSupplyStore) ByAsset(ctx context.Context, asset string) ([]domain.Supplier, error) {
	var out []domain.Supplier
	for _, byAsset := range s.records {
		if rec, ok := byAsset[asset]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeSupplyStore) ByUser(ctx context.Context, userID string) ([]domain.Supplier, error) {
	var out []domain.Supplier
	for _, rec := range s.records[userID] {
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeSupplyStore) All(ctx context.Context) ([]domain.Supplier, error) {
	var out []domain.Supplier
	for _, byAsset := range s.records {
		for _, rec := range byAsset {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeSupplyStore) AddFees(ctx context.Context, userID, asset string, gained decimal.Decimal) error {
	rec := s.records[userID][asset]
	rec.FeesCollected = rec.FeesCollected.Add(gained)
	s.records[userID][asset] = rec
	return nil
}

func (s *fakeSupplyStore) SetPosition(ctx context.Context, sup domain.Supplier) error {
	s.records[sup.UserID][sup.Asset] = sup
	return nil
}

func (s *fakeSupplyStore) DeleteUser(ctx context.Context, userID string) error {
	delete(s.records, userID)
	return nil
}

type fixture struct {
	ledger *SupplierLedger
	pool   *poolApp.Ledger
	store  *fakeSupplyStore
	window *domain.ContributionWindow
	fee    *poolDomain.Asset
	free   *poolDomain.Asset
}

func newFixture(t *testing.T, balances map[string]int64) *fixture {
	t.Helper()

	fee := poolDomain.NewAsset("SBCoin", ":sbcoin:", "sbcoin", "SBCoin#6868", poolDomain.PercentCeilFee{
		Rate:    decimal.NewFromFloat(0.02),
		Pattern: regexp.MustCompile(`sent (\d+) SBCoin`),
	})
	free := poolDomain.NewAsset("DABCoin", ":dabcoin:", "dabcoin", "DABCoin#1056", poolDomain.NoFee{
		Pattern: regexp.MustCompile(`transferred (\d+) DABCoin`),
	})

	poolStore := &fakePoolStore{balances: make(map[string]decimal.Decimal)}
	for asset, bal := range balances {
		poolStore.balances[asset] = decimal.NewFromInt(bal)
	}

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	pool, err := poolApp.NewLedger(context.Background(), fee, free, poolStore, log)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	store := newFakeSupplyStore()
	window := domain.NewContributionWindow(30 * time.Second)

	return &fixture{
		ledger: NewSupplierLedger(store, pool, window, log),
		pool:   pool,
		store:  store,
		window: window,
		fee:    fee,
		free:   free,
	}
}

func TestRecordContribution(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 100, "DABCoin": 100})
	ctx := context.Background()

	if err := f.ledger.RecordContribution(ctx, "u1", f.fee, 40); err != nil {
		t.Fatalf("RecordContribution: %v", err)
	}

	if got := f.pool.GetBalance("SBCoin"); !got.Equal(decimal.NewFromInt(140)) {
		t.Errorf("pool balance = %s, want 140", got)
	}
	rec, ok, _ := f.store.Get(ctx, "u1", "SBCoin")
	if !ok || !rec.Contributed.Equal(decimal.NewFromInt(40)) {
		t.Errorf("contributed = %s, want 40", rec.Contributed)
	}
}

func TestDistributeFeePreservesMass(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "DABCoin", decimal.NewFromInt(100))
	f.store.AddContribution(ctx, "u2", "DABCoin", decimal.NewFromInt(300))

	fee := decimal.RequireFromString("4.909090909090909")
	if err := f.ledger.DistributeFee(ctx, "DABCoin", fee); err != nil {
		t.Fatalf("DistributeFee: %v", err)
	}

	rec1, _, _ := f.store.Get(ctx, "u1", "DABCoin")
	rec2, _, _ := f.store.Get(ctx, "u2", "DABCoin")

	if !rec1.FeesCollected.Equal(fee.Div(decimal.NewFromInt(4))) {
		t.Errorf("u1 fees = %s, want a quarter of %s", rec1.FeesCollected, fee)
	}
	total := rec1.FeesCollected.Add(rec2.FeesCollected)
	if !total.Equal(fee) {
		t.Errorf("distributed %s, want %s", total, fee)
	}
}

func TestDistributeFeeNoContributions(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})

	// Dropped, not a division by zero.
	if err := f.ledger.DistributeFee(context.Background(), "DABCoin", decimal.NewFromInt(5)); err != nil {
		t.Fatalf("DistributeFee: %v", err)
	}
}

func TestWithdrawFeesBeforePrincipal(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "DABCoin", decimal.NewFromInt(50))
	f.store.AddFees(ctx, "u1", "DABCoin", decimal.RequireFromString("2.5"))

	receipt, err := f.ledger.Withdraw(ctx, "u1", f.free, 52)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if !receipt.Requested.Equal(decimal.NewFromInt(52)) || !receipt.Fee.IsZero() {
		t.Errorf("receipt = %+v, want 52 with no fee", receipt)
	}

	rec, _, _ := f.store.Get(ctx, "u1", "DABCoin")
	if !rec.Contributed.IsZero() {
		t.Errorf("contributed = %s, want 0", rec.Contributed)
	}
	if !rec.FeesCollected.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("fees = %s, want 0.5", rec.FeesCollected)
	}
	if got := f.pool.GetBalance("DABCoin"); !got.Equal(decimal.NewFromInt(948)) {
		t.Errorf("pool balance = %s, want 948", got)
	}
}

func TestWithdrawChargesTransactionFee(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "SBCoin", decimal.NewFromInt(60))

	receipt, err := f.ledger.Withdraw(ctx, "u1", f.fee, 50)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	// ceil(50 * 0.02) = 1 on top of the requested amount.
	if !receipt.Fee.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fee = %s, want 1", receipt.Fee)
	}
	if !receipt.Total.Equal(decimal.NewFromInt(51)) {
		t.Errorf("total = %s, want 51", receipt.Total)
	}
	if got := f.pool.GetBalance("SBCoin"); !got.Equal(decimal.NewFromInt(949)) {
		t.Errorf("pool balance = %s, want 949", got)
	}
}

func TestWithdrawAllMeansFullPrincipal(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "SBCoin", decimal.NewFromInt(50))
	f.store.AddFees(ctx, "u1", "SBCoin", decimal.RequireFromString("2.5"))

	receipt, err := f.ledger.Withdraw(ctx, "u1", f.fee, WithdrawAll)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	// "all" is the principal, not the pool balance.
	if !receipt.Requested.Equal(decimal.NewFromInt(50)) {
		t.Errorf("requested = %s, want 50", receipt.Requested)
	}
	if !receipt.Fee.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fee = %s, want 1", receipt.Fee)
	}

	rec, _, _ := f.store.Get(ctx, "u1", "SBCoin")
	if !rec.Contributed.Equal(decimal.NewFromInt(1)) {
		t.Errorf("contributed = %s, want 1", rec.Contributed)
	}
	if !rec.FeesCollected.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("fees = %s, want 0.5", rec.FeesCollected)
	}
}

func TestWithdrawDrainedPoolLeavesPositionIntact(t *testing.T) {
	// Swaps can pull an asset's balance below what the pool owes a
	// supplier; the withdrawal must be rejected before any record moves.
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 10})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "DABCoin", decimal.NewFromInt(50))

	_, err := f.ledger.Withdraw(ctx, "u1", f.free, 50)
	if !apperror.IsCode(err, apperror.CodeInsufficientLiquidity) {
		t.Fatalf("err = %v, want insufficient liquidity", err)
	}

	rec, ok, _ := f.store.Get(ctx, "u1", "DABCoin")
	if !ok || !rec.Contributed.Equal(decimal.NewFromInt(50)) {
		t.Errorf("contributed = %s, want 50 untouched", rec.Contributed)
	}
	if got := f.pool.GetBalance("DABCoin"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("pool balance = %s, want 10 untouched", got)
	}
}

func TestWithdrawValidation(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 1000, "DABCoin": 1000})
	ctx := context.Background()

	_, err := f.ledger.Withdraw(ctx, "nobody", f.fee, 10)
	if !apperror.IsCode(err, apperror.CodeInsufficientSupply) {
		t.Errorf("unknown supplier: err = %v, want insufficient supply", err)
	}

	f.store.AddContribution(ctx, "u1", "SBCoin", decimal.NewFromInt(5))

	_, err = f.ledger.Withdraw(ctx, "u1", f.fee, 0)
	if !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Errorf("zero amount: err = %v, want invalid input", err)
	}

	_, err = f.ledger.Withdraw(ctx, "u1", f.fee, 500)
	if !apperror.IsCode(err, apperror.CodeInsufficientSupply) {
		t.Errorf("over stake: err = %v, want insufficient supply", err)
	}
}

func TestForget(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 100, "DABCoin": 0})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "SBCoin", decimal.NewFromInt(10))

	err := f.ledger.Forget(ctx, "u1", false)
	if !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Fatalf("non-empty pool: err = %v, want invalid input", err)
	}
	if _, ok, _ := f.store.Get(ctx, "u1", "SBCoin"); !ok {
		t.Fatal("record deleted despite rejection")
	}

	if err := f.ledger.Forget(ctx, "u1", true); err != nil {
		t.Fatalf("forced forget: %v", err)
	}
	if _, ok, _ := f.store.Get(ctx, "u1", "SBCoin"); ok {
		t.Fatal("record survived forced forget")
	}
}

func TestForgetEmptyPool(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 0, "DABCoin": 0})
	ctx := context.Background()

	f.store.AddContribution(ctx, "u1", "SBCoin", decimal.NewFromInt(10))

	if err := f.ledger.Forget(ctx, "u1", false); err != nil {
		t.Fatalf("empty pool forget: %v", err)
	}
}

func TestContributionWindowRoundTrip(t *testing.T) {
	f := newFixture(t, map[string]int64{"SBCoin": 0, "DABCoin": 0})

	if f.ledger.WindowOpen("u1") {
		t.Error("window open before signal")
	}
	f.ledger.OpenWindow("u1")
	if !f.ledger.WindowOpen("u1") {
		t.Error("window closed right after signal")
	}
	if got := f.ledger.WindowTimeout(); got != 30 {
		t.Errorf("timeout = %v, want 30", got)
	}
}
