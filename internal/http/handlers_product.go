package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/log"
)

// productRow is the view model for one line of the product table.
type productRow struct {
	ID       int64
	Name     string
	UnitCost string
}

func (s *Server) handleProductsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Product list error",
			"error", err,
			log.FieldOperation, log.OpList)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar produtos</div>`))
		return
	}

	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow{
			ID:       p.ID,
			Name:     p.Name,
			UnitCost: formatReais(p.UnitCost),
		})
	}

	data := struct {
		Products []productRow
	}{Products: rows}

	s.renderPartial(w, r, "products.html", data)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	costStr := sanitizeInput(r.Form.Get("cost"))

	cost := decimal.Zero
	if costStr != "" {
		parsed, err := core.ParseAmount(costStr)
		if err != nil {
			UnprocessableEntityError("Custo inválido").Write(w)
			return
		}
		cost = parsed
	}

	product := core.Product{Name: name, UnitCost: cost}
	if err := product.Validate(); err != nil {
		s.domainError(r.Context(), err, "Dados do produto inválidos").Write(w)
		return
	}

	id, err := s.store.CreateProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			ConflictError("Já existe um produto com esse nome").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create product",
			"error", err,
			log.FieldProduct, product.Name,
			log.FieldOperation, log.OpCreate)
		s.domainError(r.Context(), err, "Erro ao salvar o produto").Write(w)
		return
	}

	s.flushRows()

	s.logger.InfoContext(r.Context(), "Product created",
		"product_id", id,
		log.FieldProduct, product.Name,
		log.FieldOperation, log.OpCreate)

	NewHTMXResponse().
		TriggerProductCreated(id).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Produto cadastrado: %s", product.Name)).
		Write(w)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("ID do produto ausente").Write(w)
		return
	}
	cascade := parser.Get("cascade") == "1"

	if err := s.store.DeleteProduct(r.Context(), id, cascade); err != nil {
		if errors.Is(err, core.ErrReferentialIntegrity) {
			ConflictError("Produto possui vendas registradas. Use a exclusão em cascata.").Write(w)
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Produto não encontrado").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete product",
			"error", err,
			"product_id", id,
			"cascade", cascade,
			log.FieldOperation, log.OpDelete)
		s.domainError(r.Context(), err, "Erro ao excluir o produto").Write(w)
		return
	}

	s.flushRows()

	s.logger.InfoContext(r.Context(), "Product deleted",
		"product_id", id,
		"cascade", cascade,
		log.FieldOperation, log.OpDelete)

	NewHTMXResponse().
		TriggerProductDeleted(id).
		TriggerSuccessNotification("Produto excluído").
		Write(w)
}
