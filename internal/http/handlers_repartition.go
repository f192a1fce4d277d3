package http

import (
	"net/http"

	"repartition/internal/allocation"
	"repartition/internal/log"
	"repartition/internal/services"
)

// handlePreview runs the allocation rules without touching storage.
// The fund table comes from configuration; only the inputs are posted.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload repartitionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	beneficiaires, rec, err := s.service.Preview(r.Context(), allocation.Input{
		MontantNet:    int64(payload.MontantNet),
		Saisissants:   payload.Saisissants,
		HasIndicateur: payload.HasIndicateur,
		IndicateurNom: payload.IndicateurNom,
		Intervenants:  payload.Intervenants,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Beneficiaires  []beneficiaryPayload      `json:"beneficiaires"`
		Reconciliation allocation.Reconciliation `json:"reconciliation"`
	}{fromCoreBeneficiaries(beneficiaires), rec})
}

// handleRepartir runs the rules against a stored case and persists the
// resulting distribution.
func (s *Server) handleRepartir(w http.ResponseWriter, r *http.Request) {
	var payload repartitionPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	id := r.PathValue("id")
	detail, err := s.service.Repartir(r.Context(), id, services.RepartitionRequest{
		Saisissants:   payload.Saisissants,
		HasIndicateur: payload.HasIndicateur,
		IndicateurNom: payload.IndicateurNom,
		Intervenants:  payload.Intervenants,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()

	s.structured.LogAffaireSaved(r.Context(),
		detail.Affaire.ID, detail.Affaire.Numero, detail.Affaire.MontantNet,
		detail.Reconciliation.Distributed, detail.Reconciliation.Ecart)

	writeJSON(w, http.StatusOK, fromDetail(detail))
}

// handleSaveBeneficiaires replaces a case's distribution with a
// manually edited list.
func (s *Server) handleSaveBeneficiaires(w http.ResponseWriter, r *http.Request) {
	var payload []beneficiaryPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}

	id := r.PathValue("id")
	detail, err := s.service.SaveDistribution(r.Context(), id, toCoreBeneficiaries(payload))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()

	s.logger.InfoContext(r.Context(), "Distribution saved",
		log.FieldAffaireID, id,
		log.FieldBeneficiaires, len(detail.Beneficiaires),
		log.FieldEcart, detail.Reconciliation.Ecart)

	writeJSON(w, http.StatusOK, fromDetail(detail))
}
