package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"vendas/internal/core"
	"vendas/internal/log"
)

// saleRowVM is the view model for one line of the sale table. The four
// derived columns are recomputed from the stored fields on every render.
type saleRowVM struct {
	ID          int64
	Day         string
	Product     string
	Marketplace string
	Quantity    int64
	UnitPrice   string
	Gross       string
	Fees        string
	Cost        string
	Profit      string
	ProfitNeg   bool
}

type totalsVM struct {
	Gross     string
	Fees      string
	Cost      string
	Profit    string
	ProfitNeg bool
}

func newTotalsVM(t core.SaleTotals) totalsVM {
	return totalsVM{
		Gross:     formatReais(t.GrossRevenue),
		Fees:      formatReais(t.TotalFees),
		Cost:      formatReais(t.TotalCost),
		Profit:    formatReais(t.Profit),
		ProfitNeg: t.Profit.IsNegative(),
	}
}

func newSaleRowVM(r core.SaleRow) saleRowVM {
	t := r.Totals()
	return saleRowVM{
		ID:          r.ID,
		Day:         r.Day.String(),
		Product:     r.ProductName,
		Marketplace: r.Marketplace,
		Quantity:    r.Quantity,
		UnitPrice:   formatReais(r.UnitPrice),
		Gross:       formatReais(t.GrossRevenue),
		Fees:        formatReais(t.TotalFees),
		Cost:        formatReais(t.TotalCost),
		Profit:      formatReais(t.Profit),
		ProfitNeg:   t.Profit.IsNegative(),
	}
}

func (s *Server) handleSalesPartial(w http.ResponseWriter, r *http.Request) {
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
		s.logger.ErrorContext(r.Context(), "Sale list error",
			"error", err,
			log.FieldOperation, log.OpList)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar vendas</div>`))
		return
	}

	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Product list error", "error", err)
	}
	dates, err := s.store.ListSaleDates(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Date list error", "error", err)
	}

	type productOption struct {
		ID       int64
		Name     string
		Selected bool
	}
	type dateOption struct {
		ID  int64
		Day string
	}

	var sum core.SaleTotals
	saleRows := make([]saleRowVM, 0, len(rows))
	for _, row := range rows {
		saleRows = append(saleRows, newSaleRowVM(row))
		sum = sum.Add(row.Totals())
	}

	productOptions := make([]productOption, 0, len(products))
	for _, p := range products {
		productOptions = append(productOptions, productOption{
			ID:       p.ID,
			Name:     p.Name,
			Selected: p.ID == filter.ProductID,
		})
	}
	dateOptions := make([]dateOption, 0, len(dates))
	for _, d := range dates {
		dateOptions = append(dateOptions, dateOption{ID: d.ID, Day: d.Day.String()})
	}

	data := struct {
		Rows     []saleRowVM
		Totals   totalsVM
		Count    int
		Products []productOption
		Dates    []dateOption
		Filter   struct {
			Marketplace string
			From        string
			To          string
		}
	}{
		Rows:     saleRows,
		Totals:   newTotalsVM(sum),
		Count:    len(saleRows),
		Products: productOptions,
		Dates:    dateOptions,
	}
	data.Filter.Marketplace = filter.Marketplace
	if !filter.From.IsZero() {
		data.Filter.From = filter.From.String()
	}
	if !filter.To.IsZero() {
		data.Filter.To = filter.To.String()
	}

	s.renderPartial(w, r, "sales.html", data)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	dateID, err := strconv.ParseInt(r.Form.Get("date_id"), 10, 64)
	if err != nil || dateID <= 0 {
		UnprocessableEntityError("Selecione uma data").Write(w)
		return
	}
	productID, err := strconv.ParseInt(r.Form.Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		UnprocessableEntityError("Selecione um produto").Write(w)
		return
	}
	quantity, err := strconv.ParseInt(r.Form.Get("quantity"), 10, 64)
	if err != nil || quantity <= 0 {
		UnprocessableEntityError("Quantidade deve ser um número positivo").Write(w)
		return
	}
	price, err := core.ParseAmount(r.Form.Get("price"))
	if err != nil {
		UnprocessableEntityError("Preço inválido").Write(w)
		return
	}
	marketplace := sanitizeInput(r.Form.Get("marketplace"))

	product, err := s.store.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Produto não encontrado").Write(w)
			return
		}
		s.domainError(r.Context(), err, "Erro ao carregar o produto").Write(w)
		return
	}

	// Current fee configuration is stamped onto the sale. Later changes
	// to the settings never touch already recorded sales.
	sale := core.Sale{
		DateID:      dateID,
		ProductID:   productID,
		Quantity:    quantity,
		UnitPrice:   price,
		Marketplace: marketplace,
		Fees:        s.currentFees(),
	}
	if err := sale.Validate(); err != nil {
		s.domainError(r.Context(), err, "Dados da venda inválidos").Write(w)
		return
	}

	id, err := s.store.CreateSale(r.Context(), sale)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Produto ou data não encontrados").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create sale",
			"error", err,
			"date_id", dateID,
			"product_id", productID,
			log.FieldQuantity, quantity,
			log.FieldMarketplace, marketplace,
			log.FieldOperation, log.OpCreate)
		s.domainError(r.Context(), err, "Erro ao registrar a venda").Write(w)
		return
	}

	s.flushRows()
	s.saleRecorded()

	fields := log.NewFields().
		WithSale(id, product.Name, quantity, marketplace).
		WithOperation(log.OpCreate)
	s.logger.InfoContext(r.Context(), "Sale recorded", fields.ToSlice()...)

	NewHTMXResponse().
		TriggerSaleCreated(id).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Venda registrada: %dx %s", quantity, product.Name)).
		Write(w)
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	id, err := parser.GetID("id")
	if err != nil {
		BadRequestError("ID da venda ausente").Write(w)
		return
	}

	if err := s.store.DeleteSale(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Venda não encontrada").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete sale",
			"error", err,
			log.FieldSaleID, id,
			log.FieldOperation, log.OpDelete)
		s.domainError(r.Context(), err, "Erro ao excluir a venda").Write(w)
		return
	}

	s.flushRows()
	s.saleRemoved()

	s.logger.InfoContext(r.Context(), "Sale deleted",
		log.FieldSaleID, id,
		log.FieldOperation, log.OpDelete)

	NewHTMXResponse().
		TriggerSaleDeleted(id).
		TriggerSuccessNotification("Venda excluída").
		Write(w)
}
