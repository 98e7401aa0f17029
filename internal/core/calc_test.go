package core

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeSale(t *testing.T) {
	cases := []struct {
		name      string
		qty       int64
		price     string
		cost      string
		fees      FeeConfig
		gross     string
		totalFees string
		totalCost string
		profit    string
	}{
		{
			// 10 units at 50.00: rate sum 0.29, fees 10*(14.50+4.00).
			name:      "ten units defaults",
			qty:       10,
			price:     "50.00",
			cost:      "20.00",
			fees:      DefaultFees(),
			gross:     "500.00",
			totalFees: "185.00",
			totalCost: "200.00",
			profit:    "115.00",
		},
		{
			// Free item still pays the fixed fee.
			name:      "zero price",
			qty:       1,
			price:     "0",
			cost:      "0",
			fees:      DefaultFees(),
			gross:     "0",
			totalFees: "4.00",
			totalCost: "0",
			profit:    "-4.00",
		},
		{
			name:  "no fees at all",
			qty:   3,
			price: "10.00",
			cost:  "2.00",
			fees:  FeeConfig{},
			gross: "30.00", totalFees: "0", totalCost: "6.00", profit: "24.00",
		},
		{
			// Fractional rates must not round midway: 7 * (0.145*19.90 + 1.05).
			name:  "fractional intermediate",
			qty:   7,
			price: "19.90",
			cost:  "3.33",
			fees: FeeConfig{
				VariableRate:     dec("0.12"),
				FixedFeePerUnit:  dec("1.05"),
				TaxRate:          dec("0.02"),
				AnticipationRate: dec("0.005"),
			},
			gross: "139.30", totalFees: "27.5485", totalCost: "23.31", profit: "88.4415",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSale(tc.qty, dec(tc.price), dec(tc.cost), tc.fees)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checks := []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"gross", got.GrossRevenue, tc.gross},
				{"fees", got.TotalFees, tc.totalFees},
				{"cost", got.TotalCost, tc.totalCost},
				{"profit", got.Profit, tc.profit},
			}
			for _, c := range checks {
				if !c.got.Equal(dec(c.want)) {
					t.Fatalf("%s expected %s, got %s", c.field, c.want, c.got)
				}
			}
		})
	}
}

func TestComputeSaleRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		qty   int64
		price string
		cost  string
		fees  FeeConfig
	}{
		{"zero quantity", 0, "1", "1", DefaultFees()},
		{"negative quantity", -5, "1", "1", DefaultFees()},
		{"negative price", 1, "-1", "1", DefaultFees()},
		{"negative cost", 1, "1", "-1", DefaultFees()},
		{"rate above one", 1, "1", "1", FeeConfig{VariableRate: dec("1.01")}},
		{"negative fixed fee", 1, "1", "1", FeeConfig{FixedFeePerUnit: dec("-1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeSale(tc.qty, dec(tc.price), dec(tc.cost), tc.fees); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

// The profit identity must hold exactly, not approximately, for any input.
func TestProfitIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		qty := rng.Int63n(1000) + 1
		price := decimal.NewFromInt(rng.Int63n(100000)).Div(dec("100"))
		cost := decimal.NewFromInt(rng.Int63n(50000)).Div(dec("100"))
		fees := FeeConfig{
			VariableRate:     decimal.NewFromInt(rng.Int63n(1001)).Div(dec("1000")),
			FixedFeePerUnit:  decimal.NewFromInt(rng.Int63n(2000)).Div(dec("100")),
			TaxRate:          decimal.NewFromInt(rng.Int63n(1001)).Div(dec("1000")),
			AnticipationRate: decimal.NewFromInt(rng.Int63n(1001)).Div(dec("1000")),
		}
		got, err := ComputeSale(qty, price, cost, fees)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		want := got.GrossRevenue.Sub(got.TotalFees).Sub(got.TotalCost)
		if !got.Profit.Equal(want) {
			t.Fatalf("iteration %d: profit %s does not match identity %s", i, got.Profit, want)
		}
	}
}

func TestComputeSaleIsPure(t *testing.T) {
	a, err := ComputeSale(10, dec("50.00"), dec("20.00"), DefaultFees())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ComputeSale(10, dec("50.00"), dec("20.00"), DefaultFees())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Profit.Equal(b.Profit) || !a.TotalFees.Equal(b.TotalFees) {
		t.Fatalf("same inputs produced different totals: %+v vs %+v", a, b)
	}
}
