package domain

import (
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentCeilFee(t *testing.T) {
	variant := PercentCeilFee{Rate: decimal.NewFromFloat(0.02)}

	tests := []struct {
		name   string
		amount int64
		want   int64
	}{
		{name: "rounds_up", amount: 86, want: 2},   // 1.72 -> 2
		{name: "exact", amount: 100, want: 2},      // 2.00 -> 2
		{name: "small_amount", amount: 1, want: 1}, // 0.02 -> 1
		{name: "zero", amount: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := variant.TransactionFee(decimal.NewFromInt(tt.amount))
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("TransactionFee(%d) = %s, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestNoFee(t *testing.T) {
	variant := NoFee{}
	if got := variant.TransactionFee(decimal.NewFromInt(1000)); !got.IsZero() {
		t.Errorf("TransactionFee = %s, want 0", got)
	}
}

func TestParseTransferAmount(t *testing.T) {
	pattern := regexp.MustCompile(`sent (\d+) SBCoin to <@\d+>`)
	variant := PercentCeilFee{Rate: decimal.NewFromFloat(0.02), Pattern: pattern}

	tests := []struct {
		name    string
		text    string
		want    int64
		wantErr error
	}{
		{
			name: "transfer_message",
			text: ":white_check_mark: sent 250 SBCoin to <@900123>",
			want: 250,
		},
		{
			name:    "unrelated_message",
			text:    "!hodl",
			wantErr: ErrNotTransfer,
		},
		{
			name:    "amount_overflows",
			text:    "sent 99999999999999999999999999 SBCoin to <@900123>",
			wantErr: ErrMalformedTransfer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := variant.ParseTransferAmount(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("amount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTransferAmountMissingGroup(t *testing.T) {
	variant := NoFee{Pattern: regexp.MustCompile(`transferred \d+ DABCoins?`)}

	_, err := variant.ParseTransferAmount("transferred 42 DABCoins to me")
	if !errors.Is(err, ErrMalformedTransfer) {
		t.Fatalf("err = %v, want ErrMalformedTransfer", err)
	}
}

func TestCaseInsensitiveTransferPattern(t *testing.T) {
	variant := NoFee{Pattern: regexp.MustCompile(`transferred (\d+) [Dd][aA][bB][cC]oins? to <@\d+>`)}

	for _, text := range []string{
		"transferred 7 DABCoin to <@1>",
		"transferred 7 dabcoins to <@1>",
	} {
		got, err := variant.ParseTransferAmount(text)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", text, err)
		}
		if got != 7 {
			t.Errorf("%q: amount = %d, want 7", text, got)
		}
	}
}
