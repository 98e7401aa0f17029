package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/log"
)

func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
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

	rows, err := s.loadRows(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard load error",
			"error", err,
			log.FieldOperation, log.OpList)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar o painel</div>`))
		return
	}

	days := core.Aggregate(rows, core.GroupByDate)

	var sum core.SaleTotals
	var quantity int64
	dayRows := make([]groupRowVM, 0, len(days))
	for _, g := range days {
		dayRows = append(dayRows, newGroupRowVM(g))
		sum = sum.Add(g.SaleTotals)
		quantity += g.Quantity
	}

	avgTicket := "R$ 0,00"
	if quantity > 0 {
		avgTicket = formatReais(sum.GrossRevenue.DivRound(decimal.NewFromInt(quantity), 2))
	}

	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Product list error", "error", err)
	}

	type productOption struct {
		ID       int64
		Name     string
		Selected bool
	}
	productOptions := make([]productOption, 0, len(products))
	for _, p := range products {
		productOptions = append(productOptions, productOption{
			ID:       p.ID,
			Name:     p.Name,
			Selected: p.ID == filter.ProductID,
		})
	}

	data := struct {
		Sales     int
		Quantity  int64
		AvgTicket string
		Totals    totalsVM
		Days      []groupRowVM
		Products  []productOption
		Query     string
		Filter    struct {
			Marketplace string
			From        string
			To          string
		}
	}{
		Sales:     len(rows),
		Quantity:  quantity,
		AvgTicket: avgTicket,
		Totals:    newTotalsVM(sum),
		Days:      dayRows,
		Products:  productOptions,
		Query:     r.URL.RawQuery,
	}
	data.Filter.Marketplace = filter.Marketplace
	if !filter.From.IsZero() {
		data.Filter.From = filter.From.String()
	}
	if !filter.To.IsZero() {
		data.Filter.To = filter.To.String()
	}

	s.renderPartial(w, r, "dashboard.html", data)
}

// handleDashboardSeries returns the per-day revenue and profit series as
// JSON for the chart. Floats are close enough for plotting; exact values
// stay in the tables.
func (s *Server) handleDashboardSeries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter, err := ParseSaleFilter(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid filter", http.StatusUnprocessableEntity)
		return
	}

	rows, err := s.loadRows(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard series load error", "error", err)
		http.Error(w, "failed to load series", http.StatusInternalServerError)
		return
	}

	type point struct {
		Day     string  `json:"day"`
		Revenue float64 `json:"revenue"`
		Profit  float64 `json:"profit"`
	}

	days := core.Aggregate(rows, core.GroupByDate)
	points := make([]point, 0, len(days))
	for _, g := range days {
		points = append(points, point{
			Day:     g.Day.String(),
			Revenue: g.GrossRevenue.InexactFloat64(),
			Profit:  g.Profit.InexactFloat64(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}
