package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/apperror"
	"github.com/sbswap/swappool/internal/logger"
)

// BalanceObserver is notified after a balance mutation has been committed.
// Observers must not mutate the ledger.
type BalanceObserver func(asset string, balance decimal.Decimal)

// Ledger owns the two pool balances. Every mutation funnels through
// AdjustBalance so the non-negativity invariant is enforced in one place
// and each change is persisted before it becomes visible.
type Ledger struct {
	assets   [2]*domain.Asset
	store    Store
	log      logger.LoggerInterface
	sampler  *Sampler
	mu       sync.RWMutex
	balances map[string]decimal.Decimal

	obsMu     sync.RWMutex
	observers []BalanceObserver
}

// NewLedger creates a Ledger for the asset pair, restoring balances from the store.
func NewLedger(ctx context.Context, first, second *domain.Asset, store Store, log logger.LoggerInterface) (*Ledger, error) {
	l := &Ledger{
		assets:   [2]*domain.Asset{first, second},
		store:    store,
		log:      log,
		balances: make(map[string]decimal.Decimal, 2),
	}

	for _, a := range l.assets {
		balance, err := store.Balance(ctx, a.Name())
		if err != nil {
			return nil, apperror.Store(fmt.Sprintf("restore balance for %s", a.Name()), err)
		}
		l.balances[a.Name()] = balance
	}

	return l, nil
}

// SetSampler wires the history sampler invoked after each successful mutation.
func (l *Ledger) SetSampler(s *Sampler) {
	l.sampler = s
}

// Subscribe registers an observer for committed balance changes.
func (l *Ledger) Subscribe(obs BalanceObserver) {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	l.observers = append(l.observers, obs)
}

// Assets returns the ordered asset pair.
func (l *Ledger) Assets() (*domain.Asset, *domain.Asset) {
	return l.assets[0], l.assets[1]
}

// AssetByName finds an asset by name, case-insensitively.
func (l *Ledger) AssetByName(name string) (*domain.Asset, bool) {
	for _, a := range l.assets {
		if strings.EqualFold(a.Name(), name) {
			return a, true
		}
	}
	return nil, false
}

// AssetByBotUser finds the asset whose bot announces transfers under the given user tag.
func (l *Ledger) AssetByBotUser(userTag string) (*domain.Asset, bool) {
	for _, a := range l.assets {
		if a.BotUser() == userTag {
			return a, true
		}
	}
	return nil, false
}

// AssetByEmojiName finds an asset by its reaction emoji identifier.
func (l *Ledger) AssetByEmojiName(emojiName string) (*domain.Asset, bool) {
	for _, a := range l.assets {
		if a.EmojiName() == emojiName {
			return a, true
		}
	}
	return nil, false
}

// Other returns the pair counterpart of the given asset.
func (l *Ledger) Other(a *domain.Asset) *domain.Asset {
	if a == l.assets[0] {
		return l.assets[1]
	}
	return l.assets[0]
}

// GetBalance returns the current balance of the asset.
func (l *Ledger) GetBalance(asset string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[asset]
}

// Balances returns both balances in pair order as one consistent snapshot.
func (l *Ledger) Balances() (decimal.Decimal, decimal.Decimal) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[l.assets[0].Name()], l.balances[l.assets[1].Name()]
}

// AdjustBalance applies delta to the asset's balance and persists the result.
// It fails with an invariant violation if the balance would go negative, in
// which case neither memory nor store is touched. On success the history
// sampler gets a chance to record a sample.
func (l *Ledger) AdjustBalance(ctx context.Context, asset string, delta decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	current, ok := l.balances[asset]
	if !ok {
		l.mu.Unlock()
		return decimal.Zero, apperror.New(apperror.CodeUnknownAsset, apperror.WithContext(asset))
	}

	next := current.Add(delta)
	if next.IsNegative() {
		l.mu.Unlock()
		return decimal.Zero, apperror.InvariantViolation(
			fmt.Sprintf("balance of %s would become negative: %s + %s", asset, current, delta))
	}

	if err := l.store.SaveBalance(ctx, asset, next); err != nil {
		l.mu.Unlock()
		return decimal.Zero, apperror.Store(fmt.Sprintf("save balance for %s", asset), err)
	}
	l.balances[asset] = next
	l.mu.Unlock()

	l.notify(asset, next)

	if l.sampler != nil {
		l.sampler.MaybeSample(ctx)
	}

	return next, nil
}

func (l *Ledger) notify(asset string, balance decimal.Decimal) {
	l.obsMu.RLock()
	observers := l.observers
	l.obsMu.RUnlock()
	for _, obs := range observers {
		obs(asset, balance)
	}
}
