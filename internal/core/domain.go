package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the wire and storage format for calendar days.
const DayLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Product struct {
		ID       int64
		Name     string
		UnitCost decimal.Decimal
	}

	SaleDate struct {
		ID  int64
		Day Date
	}

	// FeeConfig holds the marketplace fee parameters applied to a sale.
	// The three rates are fractions of the unit price; the fixed fee is
	// charged once per unit sold.
	FeeConfig struct {
		VariableRate     decimal.Decimal
		FixedFeePerUnit  decimal.Decimal
		TaxRate          decimal.Decimal
		AnticipationRate decimal.Decimal
	}

	Sale struct {
		ID          int64
		DateID      int64
		ProductID   int64
		Quantity    int64
		UnitPrice   decimal.Decimal
		Marketplace string // optional channel tag, empty means untagged
		Fees        FeeConfig
		CreatedAt   time.Time
	}

	// SaleTotals carries the figures derived from a sale. They are never
	// stored; every read recomputes them from the raw fields.
	SaleTotals struct {
		GrossRevenue decimal.Decimal
		TotalFees    decimal.Decimal
		TotalCost    decimal.Decimal
		Profit       decimal.Decimal
	}

	// SaleRow is a sale joined with the fields views and aggregation need,
	// so callers never chase the referenced product or date.
	SaleRow struct {
		Sale
		Day         Date
		ProductName string
		UnitCost    decimal.Decimal
	}
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrNotFound             = errors.New("not found")

	ErrEmptyName       = fmt.Errorf("%w: empty product name", ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	ErrInvalidPrice    = fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
	ErrInvalidCost     = fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidInput)
	ErrInvalidRate     = fmt.Errorf("%w: rate must be between 0 and 1", ErrInvalidInput)
	ErrInvalidFixedFee = fmt.Errorf("%w: fixed fee cannot be negative", ErrInvalidInput)
	ErrInvalidDay      = fmt.Errorf("%w: day must be YYYY-MM-DD", ErrInvalidInput)
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a calendar day in YYYY-MM-DD form.
func ParseDay(s string) (Date, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDay
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: day cannot be zero", ErrInvalidInput)
	}
	return nil
}

func (d Date) String() string {
	return d.Time.Format(DayLayout)
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 120 {
		return fmt.Errorf("%w: product name too long (max 120 characters)", ErrInvalidInput)
	}
	if p.UnitCost.IsNegative() {
		return ErrInvalidCost
	}
	return nil
}

func (sd SaleDate) Validate() error {
	return sd.Day.Validate()
}

func (f FeeConfig) Validate() error {
	one := decimal.NewFromInt(1)
	rates := []decimal.Decimal{f.VariableRate, f.TaxRate, f.AnticipationRate}
	for _, r := range rates {
		if r.IsNegative() || r.GreaterThan(one) {
			return ErrInvalidRate
		}
	}
	if f.FixedFeePerUnit.IsNegative() {
		return ErrInvalidFixedFee
	}
	return nil
}

// RateSum returns the combined proportional rate (variable + tax + anticipation).
func (f FeeConfig) RateSum() decimal.Decimal {
	return f.VariableRate.Add(f.TaxRate).Add(f.AnticipationRate)
}

func (s Sale) Validate() error {
	if s.DateID <= 0 || s.ProductID <= 0 {
		return fmt.Errorf("%w: sale must reference a date and a product", ErrInvalidInput)
	}
	if s.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if s.UnitPrice.IsNegative() {
		return ErrInvalidPrice
	}
	if len(s.Marketplace) > 60 {
		return fmt.Errorf("%w: marketplace too long (max 60 characters)", ErrInvalidInput)
	}
	return s.Fees.Validate()
}
