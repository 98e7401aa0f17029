package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vendas/internal/ledger"
)

// formatReais formats a decimal amount as Brazilian currency (e.g., "R$ 12,34").
func formatReais(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := strings.Replace(d.Abs().StringFixed(2), ".", ",", 1)
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

// formatPercent formats a fractional rate as a percentage (e.g., 0.2 -> "20%").
func formatPercent(d decimal.Decimal) string {
	s := d.Mul(decimal.NewFromInt(100)).String()
	return strings.Replace(s, ".", ",", 1) + "%"
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// filterKey builds a cache key identifying a sale listing filter.
func filterKey(f ledger.SaleFilter) string {
	var b strings.Builder
	b.WriteString("sales")
	if f.ProductID != 0 {
		fmt.Fprintf(&b, ":p%d", f.ProductID)
	}
	if f.Marketplace != "" {
		b.WriteString(":m" + f.Marketplace)
	}
	if !f.From.IsZero() {
		b.WriteString(":f" + f.From.String())
	}
	if !f.To.IsZero() {
		b.WriteString(":t" + f.To.String())
	}
	if f.Year != 0 {
		fmt.Fprintf(&b, ":y%d", f.Year)
	}
	if f.Month != 0 {
		fmt.Fprintf(&b, ":mo%d", f.Month)
	}
	return b.String()
}
