// Package export renders sale aggregates as downloadable files. CSV for
// quick imports, XLSX for the full report workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"vendas/internal/core"
)

// WriteSummaryCSV writes aggregation groups, one line per group. The
// product column is empty when the groups were built by date only.
func WriteSummaryCSV(w io.Writer, groups []core.GroupTotals) error {
	cw := csv.NewWriter(w)

	header := []string{"dia", "produto", "vendas", "quantidade", "receita_bruta", "taxas", "custo", "lucro"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, g := range groups {
		record := []string{
			g.Day.String(),
			g.ProductName,
			fmt.Sprint(g.Sales),
			fmt.Sprint(g.Quantity),
			core.FormatAmount(g.GrossRevenue),
			core.FormatAmount(g.TotalFees),
			core.FormatAmount(g.TotalCost),
			core.FormatAmount(g.Profit),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRankingCSV writes per-product totals, best seller first.
func WriteRankingCSV(w io.Writer, ranking []core.ProductSales) error {
	cw := csv.NewWriter(w)

	header := []string{"produto", "vendas", "quantidade", "receita_bruta", "taxas", "custo", "lucro"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range ranking {
		record := []string{
			p.ProductName,
			fmt.Sprint(p.Sales),
			fmt.Sprint(p.Quantity),
			core.FormatAmount(p.GrossRevenue),
			core.FormatAmount(p.TotalFees),
			core.FormatAmount(p.TotalCost),
			core.FormatAmount(p.Profit),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
