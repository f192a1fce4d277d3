package http

import (
	"database/sql"
	"errors"
	"net/http"
)

func (s *Server) handleListFonds(w http.ResponseWriter, r *http.Request) {
	fonds, err := s.service.Fonds(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromFunds(fonds))
}

func (s *Server) handleCreateFond(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	f, err := payload.toFund()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created, err := s.service.CreateFond(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusCreated, configPayload{ID: created.ID, Nom: created.Nom, Poids: created.Poids.String()})
}

func (s *Server) handleUpdateFond(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var payload configPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	f, err := payload.toFund()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	f.ID = id

	if err := s.service.UpdateFond(r.Context(), f); err != nil {
		s.writeConfigError(w, r, err, "fonds introuvable")
		return
	}
	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, configPayload{ID: f.ID, Nom: f.Nom, Poids: f.Poids.String()})
}

func (s *Server) handleDeleteFond(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.DeleteFond(r.Context(), id); err != nil {
		s.writeConfigError(w, r, err, "fonds introuvable")
		return
	}
	s.invalidateReadCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListChefs(w http.ResponseWriter, r *http.Request) {
	chefs, err := s.service.Chefs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromChiefs(chefs))
}

func (s *Server) handleCreateChef(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	c, err := payload.toChief()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	created, err := s.service.CreateChef(r.Context(), c)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, configPayload{ID: created.ID, Nom: created.Nom, Poids: created.Poids.String()})
}

func (s *Server) handleUpdateChef(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var payload configPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "corps de requête invalide")
		return
	}
	c, err := payload.toChief()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	c.ID = id

	if err := s.service.UpdateChef(r.Context(), c); err != nil {
		s.writeConfigError(w, r, err, "chef introuvable")
		return
	}
	writeJSON(w, http.StatusOK, configPayload{ID: c.ID, Nom: c.Nom, Poids: c.Poids.String()})
}

func (s *Server) handleDeleteChef(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.service.DeleteChef(r.Context(), id); err != nil {
		s.writeConfigError(w, r, err, "chef introuvable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeConfigError maps a missing fund/chief row to 404 and defers the
// rest to the shared mapping.
func (s *Server) writeConfigError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	s.writeServiceError(w, r, err)
}
