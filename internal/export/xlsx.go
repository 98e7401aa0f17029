package export

import (
	"fmt"
	"io"

	"vendas/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	salesSheet   = "Vendas"
	summarySheet = "Resumo"
	rankingSheet = "Ranking"
)

// WriteReportXLSX writes the full report workbook: raw sales, the
// date/product summary, and the product ranking, one sheet each.
func WriteReportXLSX(w io.Writer, rows []core.SaleRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return fmt.Errorf("rename sales sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(rankingSheet); err != nil {
		return fmt.Errorf("create ranking sheet: %w", err)
	}

	if err := fillSalesSheet(f, rows); err != nil {
		return err
	}
	if err := fillSummarySheet(f, core.Aggregate(rows, core.GroupByDateProduct)); err != nil {
		return err
	}
	if err := fillRankingSheet(f, core.ProductRanking(rows)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSalesSheet(f *excelize.File, rows []core.SaleRow) error {
	headers := []string{"ID", "Dia", "Produto", "Quantidade", "Preço unitário", "Custo unitário", "Marketplace", "Receita bruta", "Taxas", "Custo", "Lucro"}
	if err := setHeaderRow(f, salesSheet, headers); err != nil {
		return err
	}

	for i, r := range rows {
		t := r.Totals()
		values := []any{
			r.ID,
			r.Day.String(),
			r.ProductName,
			r.Quantity,
			r.UnitPrice.InexactFloat64(),
			r.UnitCost.InexactFloat64(),
			r.Marketplace,
			t.GrossRevenue.InexactFloat64(),
			t.TotalFees.InexactFloat64(),
			t.TotalCost.InexactFloat64(),
			t.Profit.InexactFloat64(),
		}
		if err := setValueRow(f, salesSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func fillSummarySheet(f *excelize.File, groups []core.GroupTotals) error {
	headers := []string{"Dia", "Produto", "Vendas", "Quantidade", "Receita bruta", "Taxas", "Custo", "Lucro"}
	if err := setHeaderRow(f, summarySheet, headers); err != nil {
		return err
	}

	for i, g := range groups {
		values := []any{
			g.Day.String(),
			g.ProductName,
			g.Sales,
			g.Quantity,
			g.GrossRevenue.InexactFloat64(),
			g.TotalFees.InexactFloat64(),
			g.TotalCost.InexactFloat64(),
			g.Profit.InexactFloat64(),
		}
		if err := setValueRow(f, summarySheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func fillRankingSheet(f *excelize.File, ranking []core.ProductSales) error {
	headers := []string{"Produto", "Vendas", "Quantidade", "Receita bruta", "Taxas", "Custo", "Lucro"}
	if err := setHeaderRow(f, rankingSheet, headers); err != nil {
		return err
	}

	for i, p := range ranking {
		values := []any{
			p.ProductName,
			p.Sales,
			p.Quantity,
			p.GrossRevenue.InexactFloat64(),
			p.TotalFees.InexactFloat64(),
			p.TotalCost.InexactFloat64(),
			p.Profit.InexactFloat64(),
		}
		if err := setValueRow(f, rankingSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell for %s: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %q on %s: %w", h, sheet, err)
		}
	}
	return nil
}

func setValueRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell for %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s on %s: %w", cell, sheet, err)
		}
	}
	return nil
}
