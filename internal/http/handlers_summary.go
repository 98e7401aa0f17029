package http

import (
	"net/http"
	"strings"

	"vendas/internal/core"
	"vendas/internal/ledger"
	"vendas/internal/log"
)

// groupRowVM is the view model for one aggregation bucket.
type groupRowVM struct {
	Day       string
	Product   string
	Sales     int
	Quantity  int64
	Gross     string
	Fees      string
	Cost      string
	Profit    string
	ProfitNeg bool
}

func newGroupRowVM(g core.GroupTotals) groupRowVM {
	return groupRowVM{
		Day:       g.Day.String(),
		Product:   g.ProductName,
		Sales:     g.Sales,
		Quantity:  g.Quantity,
		Gross:     formatReais(g.GrossRevenue),
		Fees:      formatReais(g.TotalFees),
		Cost:      formatReais(g.TotalCost),
		Profit:    formatReais(g.Profit),
		ProfitNeg: g.Profit.IsNegative(),
	}
}

func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	filter, err := ParseSaleFilter(r.URL.Query())
	if err != nil {
		s.domainError(r.Context(), err, "Filtro inválido").Write(w)
		return
	}

	groupBy := core.GroupByDate
	byProduct := strings.TrimSpace(r.URL.Query().Get("group")) == "product"
	if byProduct {
		groupBy = core.GroupByDateProduct
	}

	rows, err := s.loadRows(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary load error",
			"error", err,
			log.FieldOperation, log.OpList)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar o resumo</div>`))
		return
	}

	groups := core.Aggregate(rows, groupBy)

	var sum core.SaleTotals
	groupRows := make([]groupRowVM, 0, len(groups))
	for _, g := range groups {
		groupRows = append(groupRows, newGroupRowVM(g))
		sum = sum.Add(g.SaleTotals)
	}

	data := struct {
		ByProduct bool
		Rows      []groupRowVM
		Totals    totalsVM
		From      string
		To        string
	}{
		ByProduct: byProduct,
		Rows:      groupRows,
		Totals:    newTotalsVM(sum),
	}
	if !filter.From.IsZero() {
		data.From = filter.From.String()
	}
	if !filter.To.IsZero() {
		data.To = filter.To.String()
	}

	s.renderPartial(w, r, "summary.html", data)
}

// rankRowVM is the view model for one product in the ranking table.
type rankRowVM struct {
	Position  int
	Product   string
	Sales     int
	Quantity  int64
	Gross     string
	Profit    string
	ProfitNeg bool
}

func (s *Server) handleReportPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	params := ParseMonthParams(r.URL.Query())
	if params.Month < 1 || params.Month > 12 {
		s.logger.WarnContext(r.Context(), "Invalid month parameter",
			log.FieldYear, params.Year,
			log.FieldMonth, params.Month)
		UnprocessableEntityError("Mês deve estar entre 1 e 12").Write(w)
		return
	}
	marketplace := sanitizeInput(r.URL.Query().Get("marketplace"))

	filter := ledger.SaleFilter{
		Year:        params.Year,
		Month:       params.Month,
		Marketplace: marketplace,
	}
	rows, err := s.loadRows(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report load error",
			"error", err,
			log.FieldYear, params.Year,
			log.FieldMonth, params.Month)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar o relatório</div>`))
		return
	}

	days := core.Aggregate(rows, core.GroupByDate)
	ranking := core.ProductRanking(rows)

	var sum core.SaleTotals
	var quantity int64
	dayRows := make([]groupRowVM, 0, len(days))
	for _, g := range days {
		dayRows = append(dayRows, newGroupRowVM(g))
		sum = sum.Add(g.SaleTotals)
		quantity += g.Quantity
	}

	rankRows := make([]rankRowVM, 0, len(ranking))
	for i, p := range ranking {
		rankRows = append(rankRows, rankRowVM{
			Position:  i + 1,
			Product:   p.ProductName,
			Sales:     p.Sales,
			Quantity:  p.Quantity,
			Gross:     formatReais(p.GrossRevenue),
			Profit:    formatReais(p.Profit),
			ProfitNeg: p.Profit.IsNegative(),
		})
	}

	topProduct := ""
	if len(ranking) > 0 {
		topProduct = ranking[0].ProductName
	}

	data := struct {
		Year        int
		Month       int
		Marketplace string
		Sales       int
		Quantity    int64
		Totals      totalsVM
		TopProduct  string
		Days        []groupRowVM
		Ranking     []rankRowVM
	}{
		Year:        params.Year,
		Month:       params.Month,
		Marketplace: marketplace,
		Sales:       len(rows),
		Quantity:    quantity,
		Totals:      newTotalsVM(sum),
		TopProduct:  topProduct,
		Days:        dayRows,
		Ranking:     rankRows,
	}

	s.renderPartial(w, r, "report.html", data)
}
