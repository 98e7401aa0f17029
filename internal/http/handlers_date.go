package http

import (
	"errors"
	"net/http"

	"vendas/internal/core"
	"vendas/internal/log"
)

// dateRow is the view model for one line of the date table.
type dateRow struct {
	ID  int64
	Day string
}

func (s *Server) handleDatesPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	dates, err := s.store.ListSaleDates(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Date list error",
			"error", err,
			log.FieldOperation, log.OpList)
		_, _ = w.Write([]byte(`<div class="placeholder">Erro ao carregar datas</div>`))
		return
	}

	rows := make([]dateRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, dateRow{ID: d.ID, Day: d.Day.String()})
	}

	data := struct {
		Dates []dateRow
	}{Dates: rows}

	s.renderPartial(w, r, "dates.html", data)
}

func (s *Server) handleCreateDate(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	day, err := core.ParseDay(r.Form.Get("day"))
	if err != nil {
		UnprocessableEntityError("Data deve estar no formato AAAA-MM-DD").Write(w)
		return
	}

	date := core.SaleDate{Day: day}
	if err := date.Validate(); err != nil {
		s.domainError(r.Context(), err, "Data inválida").Write(w)
		return
	}

	id, err := s.store.CreateSaleDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			ConflictError("Essa data já está cadastrada").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create date",
			"error", err,
			"day", day.String(),
			log.FieldOperation, log.OpCreate)
		s.domainError(r.Context(), err, "Erro ao salvar a data").Write(w)
		return
	}

	s.flushRows()

	s.logger.InfoContext(r.Context(), "Date created",
		"date_id", id,
		"day", day.String(),
		log.FieldOperation, log.OpCreate)

	NewHTMXResponse().
		TriggerDateCreated(id).
		TriggerFormReset().
		TriggerSuccessNotification("Data cadastrada: " + day.String()).
		Write(w)
}

func (s *Server) handleDeleteDate(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("ID da data ausente").Write(w)
		return
	}
	cascade := parser.Get("cascade") == "1"

	if err := s.store.DeleteSaleDate(r.Context(), id, cascade); err != nil {
		if errors.Is(err, core.ErrReferentialIntegrity) {
			ConflictError("Data possui vendas registradas. Use a exclusão em cascata.").Write(w)
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Data não encontrada").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete date",
			"error", err,
			"date_id", id,
			"cascade", cascade,
			log.FieldOperation, log.OpDelete)
		s.domainError(r.Context(), err, "Erro ao excluir a data").Write(w)
		return
	}

	s.flushRows()

	s.logger.InfoContext(r.Context(), "Date deleted",
		"date_id", id,
		"cascade", cascade,
		log.FieldOperation, log.OpDelete)

	NewHTMXResponse().
		TriggerDateDeleted(id).
		TriggerSuccessNotification("Data excluída").
		Write(w)
}
