package http

import (
	"net/http"

	"repartition/internal/export"
	"repartition/internal/log"
)

// handleExportAffaire streams a case's distribution in the requested
// format. The document is rendered from current state on every call.
func (s *Server) handleExportAffaire(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "format inconnu, valeurs acceptées: pdf, xlsx, csv")
		return
	}

	detail, err := s.service.GetAffaire(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	rep := export.NewReport(detail.Affaire, detail.Beneficiaires)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+rep.FileName(format)+`"`)
	if err := rep.Render(w, format); err != nil {
		// The body may be partially written; the log entry is all we get.
		s.logger.ErrorContext(r.Context(), "Export rendering failed",
			log.FieldError, err,
			log.FieldAffaireID, detail.Affaire.ID,
			log.FieldFormat, string(format))
		return
	}

	s.logger.InfoContext(r.Context(), "Export served",
		log.FieldAffaireID, detail.Affaire.ID,
		log.FieldNumero, detail.Affaire.Numero,
		log.FieldFormat, string(format))
}
