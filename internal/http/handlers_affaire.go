package http

import (
	"net/http"
	"strconv"

	"repartition/internal/core"
	"repartition/internal/log"
	"repartition/internal/services"
)

func (s *Server) handleCreateAffaire(w http.ResponseWriter, r *http.Request) {
	var payload affairePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	a, err := payload.toCore()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created, err := s.service.CreateAffaire(r.Context(), a)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()

	s.logger.InfoContext(r.Context(), "Affaire created",
		log.FieldAffaireID, created.ID,
		log.FieldNumero, created.Numero,
		log.FieldMontantNet, created.MontantNet)

	writeJSON(w, http.StatusCreated, fromCoreAffaire(created))
}

func (s *Server) handleGetAffaire(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.GetAffaire(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromDetail(detail))
}

// handleGetAffaireByNumero looks a case up by its numero. Numeros
// contain slashes ("2024/0042"), so the value travels as a query
// parameter rather than a path segment.
func (s *Server) handleGetAffaireByNumero(w http.ResponseWriter, r *http.Request) {
	numero := sanitizeInput(r.URL.Query().Get("numero"))
	if numero == "" {
		writeError(w, http.StatusBadRequest, "paramètre numero manquant")
		return
	}
	detail, err := s.service.GetAffaireByNumero(r.Context(), numero)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromDetail(detail))
}

func (s *Server) handleListAffaires(w http.ResponseWriter, r *http.Request) {
	from, to, limit, err := dateRange(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	key := listCacheKey(from, to, limit)
	if cached, found := s.listCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Affaire list served from cache", "key", key)
		writeAffaireList(w, cached)
		return
	}

	details, err := s.service.ListAffaireDetails(r.Context(), from, to, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.listCache.Set(key, details)
	writeAffaireList(w, details)
}

func (s *Server) handleUpdateAffaire(w http.ResponseWriter, r *http.Request) {
	var payload affairePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	a, err := payload.toCore()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	a.ID = r.PathValue("id")

	detail, err := s.service.UpdateAffaire(r.Context(), a)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()

	s.logger.InfoContext(r.Context(), "Affaire updated",
		log.FieldAffaireID, detail.Affaire.ID,
		log.FieldNumero, detail.Affaire.Numero)

	writeJSON(w, http.StatusOK, fromDetail(detail))
}

func (s *Server) handleDeleteAffaire(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteAffaire(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()

	s.logger.InfoContext(r.Context(), "Affaire deleted", log.FieldAffaireID, id)
	w.WriteHeader(http.StatusNoContent)
}

func listCacheKey(from, to core.Date, limit int) string {
	return from.String() + "|" + to.String() + "|" + strconv.Itoa(limit)
}

func writeAffaireList(w http.ResponseWriter, details []services.AffaireDetail) {
	out := make([]affaireDetailPayload, 0, len(details))
	for _, d := range details {
		out = append(out, fromDetail(d))
	}
	writeJSON(w, http.StatusOK, out)
}
