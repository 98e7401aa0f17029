package core

import "github.com/shopspring/decimal"

// DefaultFees returns the marketplace fee defaults: 20% variable commission,
// R$4.00 fixed per unit, 8% tax, 1% anticipation.
func DefaultFees() FeeConfig {
	return FeeConfig{
		VariableRate:     decimal.RequireFromString("0.20"),
		FixedFeePerUnit:  decimal.RequireFromString("4.00"),
		TaxRate:          decimal.RequireFromString("0.08"),
		AnticipationRate: decimal.RequireFromString("0.01"),
	}
}

// ComputeSale derives the money figures for one sale:
//
//	grossRevenue = quantity * unitPrice
//	totalFees    = quantity * ((variable+tax+anticipation) * unitPrice + fixedFeePerUnit)
//	totalCost    = quantity * unitCost
//	profit       = grossRevenue - totalFees - totalCost
//
// The function is pure and performs no rounding. It rejects non-positive
// quantities, negative money values and rates outside [0, 1].
func ComputeSale(quantity int64, unitPrice, unitCost decimal.Decimal, fees FeeConfig) (SaleTotals, error) {
	if quantity <= 0 {
		return SaleTotals{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return SaleTotals{}, ErrInvalidPrice
	}
	if unitCost.IsNegative() {
		return SaleTotals{}, ErrInvalidCost
	}
	if err := fees.Validate(); err != nil {
		return SaleTotals{}, err
	}
	return derive(quantity, unitPrice, unitCost, fees), nil
}

// derive is the unchecked arithmetic behind ComputeSale. Rows coming out of
// a store were validated on the way in, so reads skip revalidation.
func derive(quantity int64, unitPrice, unitCost decimal.Decimal, fees FeeConfig) SaleTotals {
	qty := decimal.NewFromInt(quantity)
	gross := qty.Mul(unitPrice)
	feesTotal := qty.Mul(fees.RateSum().Mul(unitPrice).Add(fees.FixedFeePerUnit))
	cost := qty.Mul(unitCost)
	return SaleTotals{
		GrossRevenue: gross,
		TotalFees:    feesTotal,
		TotalCost:    cost,
		Profit:       gross.Sub(feesTotal).Sub(cost),
	}
}

// Totals recomputes the derived figures from the row's raw fields and its
// fee snapshot.
func (r SaleRow) Totals() SaleTotals {
	return derive(r.Quantity, r.UnitPrice, r.UnitCost, r.Fees)
}

// Add accumulates another totals value into t.
func (t SaleTotals) Add(o SaleTotals) SaleTotals {
	return SaleTotals{
		GrossRevenue: t.GrossRevenue.Add(o.GrossRevenue),
		TotalFees:    t.TotalFees.Add(o.TotalFees),
		TotalCost:    t.TotalCost.Add(o.TotalCost),
		Profit:       t.Profit.Add(o.Profit),
	}
}
