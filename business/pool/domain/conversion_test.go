package domain

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(decimal.NewFromFloat(0.05))
}

func feeAsset(t *testing.T, rate float64) *Asset {
	t.Helper()
	return NewAsset("SBCoin", ":sbcoin:", "sbcoin", "SBCoin#6868", PercentCeilFee{
		Rate:    decimal.NewFromFloat(rate),
		Pattern: regexp.MustCompile(`sent (\d+) SBCoin`),
	})
}

func freeAsset(t *testing.T) *Asset {
	t.Helper()
	return NewAsset("DABCoin", ":dabcoin:", "dabcoin", "DABCoin#1056", NoFee{
		Pattern: regexp.MustCompile(`transferred (\d+) DABCoin`),
	})
}

func TestPriceBalancedPool(t *testing.T) {
	engine := newTestEngine(t)
	to := freeAsset(t)

	balance := decimal.NewFromInt(1000)
	quote := engine.Price(decimal.NewFromInt(100), balance, balance, to, true, true)

	// k = 1000*1000; raw = 1000 - k/1100 = 90.909...; after the 5% supply
	// fee and flooring the trader gets 86, and everything between raw and
	// 86 stays in the pool for the suppliers.
	if !quote.Output.Equal(decimal.NewFromInt(86)) {
		t.Errorf("output = %s, want 86", quote.Output)
	}

	raw := decimal.NewFromInt(1000).Sub(
		decimal.NewFromInt(1000000).Div(decimal.NewFromInt(1100)))
	wantFee := raw.Sub(decimal.NewFromInt(86))
	if !quote.SupplierFee.Equal(wantFee) {
		t.Errorf("supplier fee = %s, want %s", quote.SupplierFee, wantFee)
	}
}

func TestPriceDestinationTransactionFee(t *testing.T) {
	engine := newTestEngine(t)
	to := feeAsset(t, 0.02)

	balance := decimal.NewFromInt(1000)
	quote := engine.Price(decimal.NewFromInt(100), balance, balance, to, true, true)

	// Floored output is 86; the destination charges ceil(86*0.02) = 2 on
	// the way out. The transaction fee is not part of the supplier fee.
	if !quote.Output.Equal(decimal.NewFromInt(84)) {
		t.Errorf("output = %s, want 84", quote.Output)
	}

	raw := decimal.NewFromInt(1000).Sub(
		decimal.NewFromInt(1000000).Div(decimal.NewFromInt(1100)))
	wantFee := raw.Sub(decimal.NewFromInt(86))
	if !quote.SupplierFee.Equal(wantFee) {
		t.Errorf("supplier fee = %s, want %s", quote.SupplierFee, wantFee)
	}
}

func TestPriceEdgeCases(t *testing.T) {
	engine := newTestEngine(t)
	to := freeAsset(t)

	tests := []struct {
		name        string
		input       int64
		balanceFrom int64
		balanceTo   int64
	}{
		{name: "negative_input", input: -10, balanceFrom: 1000, balanceTo: 1000},
		{name: "empty_pool", input: 0, balanceFrom: 0, balanceTo: 0},
		{name: "zero_input_zero_from", input: 0, balanceFrom: 0, balanceTo: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := engine.Price(
				decimal.NewFromInt(tt.input),
				decimal.NewFromInt(tt.balanceFrom),
				decimal.NewFromInt(tt.balanceTo),
				to, true, true)

			if !quote.Output.IsZero() {
				t.Errorf("output = %s, want 0", quote.Output)
			}
			if !quote.SupplierFee.IsZero() {
				t.Errorf("supplier fee = %s, want 0", quote.SupplierFee)
			}
		})
	}
}

func TestPriceNeverCreatesValue(t *testing.T) {
	engine := newTestEngine(t)
	to := freeAsset(t)

	tests := []struct {
		name        string
		input       int64
		balanceFrom int64
		balanceTo   int64
	}{
		{name: "small_trade", input: 10, balanceFrom: 1000, balanceTo: 1000},
		{name: "large_trade", input: 900, balanceFrom: 1000, balanceTo: 1000},
		{name: "skewed_pool", input: 100, balanceFrom: 50, balanceTo: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := decimal.NewFromInt(tt.input)
			balanceFrom := decimal.NewFromInt(tt.balanceFrom)
			balanceTo := decimal.NewFromInt(tt.balanceTo)

			quote := engine.Price(input, balanceFrom, balanceTo, to, true, true)

			// The product invariant plus fees means output + retained fee
			// can never exceed what the raw curve releases.
			k := balanceFrom.Mul(balanceTo)
			raw := balanceTo.Sub(k.Div(balanceFrom.Add(input)))
			if quote.Output.Add(quote.SupplierFee).GreaterThan(raw) {
				t.Errorf("output %s + fee %s exceeds raw release %s",
					quote.Output, quote.SupplierFee, raw)
			}
		})
	}
}

func TestPriceRoundTripNeverExceedsInput(t *testing.T) {
	engine := newTestEngine(t)
	first := feeAsset(t, 0.02)
	second := freeAsset(t)

	tests := []struct {
		name        string
		input       int64
		balanceFrom int64
		balanceTo   int64
		rounding    bool
	}{
		{name: "balanced", input: 100, balanceFrom: 1000, balanceTo: 1000},
		{name: "balanced_rounded", input: 100, balanceFrom: 1000, balanceTo: 1000, rounding: true},
		{name: "skewed", input: 250, balanceFrom: 400, balanceTo: 9000},
		{name: "skewed_rounded", input: 250, balanceFrom: 400, balanceTo: 9000, rounding: true},
		{name: "tiny", input: 1, balanceFrom: 50, balanceTo: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := decimal.NewFromInt(tt.input)
			balanceFrom := decimal.NewFromInt(tt.balanceFrom)
			balanceTo := decimal.NewFromInt(tt.balanceTo)

			// Convert input first to second, then the result straight back.
			// Fees and rounding only ever lose value, so the returned amount
			// can never exceed what went in.
			out := engine.Price(input, balanceFrom, balanceTo, second, false, tt.rounding).Output
			back := engine.Price(out, balanceTo, balanceFrom, first, false, tt.rounding).Output

			if back.GreaterThan(input) {
				t.Errorf("round trip returned %s for input %s", back, input)
			}
		})
	}
}

func TestSpotPrice(t *testing.T) {
	engine := newTestEngine(t)
	to := freeAsset(t)

	// Unrounded price of one unit: (1000 - 10^6/1001) * 0.95.
	got := engine.SpotPrice(decimal.NewFromInt(1000), decimal.NewFromInt(1000), to)

	raw := decimal.NewFromInt(1000).Sub(
		decimal.NewFromInt(1000000).Div(decimal.NewFromInt(1001)))
	want := raw.Sub(raw.Mul(decimal.NewFromFloat(0.05)))
	if !got.Equal(want) {
		t.Errorf("spot price = %s, want %s", got, want)
	}

	// Flooring would zero it out; spot prices must keep the fraction.
	if got.IsZero() {
		t.Error("spot price rounded away to zero")
	}
}

// Benchmark for the pricing hot path
func BenchmarkPrice(b *testing.B) {
	engine := NewEngine(decimal.NewFromFloat(0.05))
	to := NewAsset("DABCoin", ":dabcoin:", "dabcoin", "DABCoin#1056", NoFee{
		Pattern: regexp.MustCompile(`transferred (\d+) DABCoin`),
	})
	input := decimal.NewFromInt(100)
	balance := decimal.NewFromInt(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Price(input, balance, balance, to, true, true)
	}
}
