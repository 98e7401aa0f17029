package http

import (
	"fmt"
	"net/http"
	"strings"

	"vendas/internal/core"
	"vendas/internal/export"
	"vendas/internal/ledger"
	"vendas/internal/log"
)

func (s *Server) handleExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter, err := ParseSaleFilter(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid filter", http.StatusUnprocessableEntity)
		return
	}

	groupBy := core.GroupByDate
	if strings.TrimSpace(r.URL.Query().Get("group")) == "product" {
		groupBy = core.GroupByDateProduct
	}

	rows, err := s.loadRows(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary export load error",
			"error", err,
			log.FieldOperation, log.OpExport)
		http.Error(w, "failed to load sales", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="resumo.csv"`)

	if err := export.WriteSummaryCSV(w, core.Aggregate(rows, groupBy)); err != nil {
		s.logger.ErrorContext(r.Context(), "Summary CSV write error",
			"error", err,
			log.FieldComponent, log.ComponentExport)
	}
}

func (s *Server) handleExportRankingCSV(w http.ResponseWriter, r *http.Request) {
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
		s.logger.ErrorContext(r.Context(), "Ranking export load error",
			"error", err,
			log.FieldOperation, log.OpExport)
		http.Error(w, "failed to load sales", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ranking.csv"`)

	if err := export.WriteRankingCSV(w, core.ProductRanking(rows)); err != nil {
		s.logger.ErrorContext(r.Context(), "Ranking CSV write error",
			"error", err,
			log.FieldComponent, log.ComponentExport)
	}
}

func (s *Server) handleExportReportXLSX(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	params := ParseMonthParams(r.URL.Query())
	if params.Month < 1 || params.Month > 12 {
		http.Error(w, "month must be between 1 and 12", http.StatusUnprocessableEntity)
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
		s.logger.ErrorContext(r.Context(), "Report export load error",
			"error", err,
			log.FieldYear, params.Year,
			log.FieldMonth, params.Month,
			log.FieldOperation, log.OpExport)
		http.Error(w, "failed to load sales", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("relatorio-%04d-%02d.xlsx", params.Year, params.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := export.WriteReportXLSX(w, rows); err != nil {
		s.logger.ErrorContext(r.Context(), "Report XLSX write error",
			"error", err,
			log.FieldComponent, log.ComponentExport)
	}

	s.logger.InfoContext(r.Context(), "Report exported",
		log.FieldYear, params.Year,
		log.FieldMonth, params.Month,
		log.FieldMarketplace, marketplace,
		"rows", len(rows),
		log.FieldOperation, log.OpExport)
}
