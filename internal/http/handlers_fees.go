package http

import (
	"net/http"

	"vendas/internal/core"
	"vendas/internal/log"
)

func (s *Server) handleFeesPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	fees := s.currentFees()
	data := struct {
		VariableRate     string
		FixedFee         string
		TaxRate          string
		AnticipationRate string
		RateSum          string
	}{
		VariableRate:     fees.VariableRate.String(),
		FixedFee:         core.FormatAmount(fees.FixedFeePerUnit),
		TaxRate:          fees.TaxRate.String(),
		AnticipationRate: fees.AnticipationRate.String(),
		RateSum:          formatPercent(fees.RateSum()),
	}

	s.renderPartial(w, r, "fees.html", data)
}

func (s *Server) handleUpdateFees(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	variable, err := core.ParseRate(r.Form.Get("variable_rate"))
	if err != nil {
		UnprocessableEntityError("Comissão variável deve estar entre 0 e 1").Write(w)
		return
	}
	tax, err := core.ParseRate(r.Form.Get("tax_rate"))
	if err != nil {
		UnprocessableEntityError("Imposto deve estar entre 0 e 1").Write(w)
		return
	}
	anticipation, err := core.ParseRate(r.Form.Get("anticipation_rate"))
	if err != nil {
		UnprocessableEntityError("Antecipação deve estar entre 0 e 1").Write(w)
		return
	}
	fixed, err := core.ParseAmount(r.Form.Get("fixed_fee"))
	if err != nil {
		UnprocessableEntityError("Tarifa fixa inválida").Write(w)
		return
	}

	fees := core.FeeConfig{
		VariableRate:     variable,
		FixedFeePerUnit:  fixed,
		TaxRate:          tax,
		AnticipationRate: anticipation,
	}
	if err := fees.Validate(); err != nil {
		s.domainError(r.Context(), err, "Configuração de taxas inválida").Write(w)
		return
	}

	// Recorded sales keep their stamped snapshots, so no cache flush here.
	s.setFees(fees)

	s.logger.InfoContext(r.Context(), "Fee configuration updated",
		"variable_rate", fees.VariableRate.String(),
		"fixed_fee", fees.FixedFeePerUnit.String(),
		"tax_rate", fees.TaxRate.String(),
		"anticipation_rate", fees.AnticipationRate.String(),
		log.FieldOperation, log.OpUpdate)

	NewHTMXResponse().
		TriggerFeesUpdated().
		TriggerSuccessNotification("Taxas atualizadas").
		Write(w)
}
