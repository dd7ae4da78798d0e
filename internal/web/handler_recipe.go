package web

import (
	"net/http"
	"strconv"
)

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := parseID(r); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	view, err := s.service.RecipeDetails(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("get recipe failed", "recipe_id", id, "error", err)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListStarred(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Starred())
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	starred, err := s.service.ToggleStar(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("toggle star failed", "recipe_id", id, "error", err)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "starred": starred})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
