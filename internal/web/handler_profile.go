package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vbonduro/mealmate/internal/domain"
)

const maxNameLen = 200

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Profile())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&p); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if len(p.FirstName) > maxNameLen || len(p.LastName) > maxNameLen {
		s.writeError(w, http.StatusBadRequest, "name too long")
		return
	}

	updated, err := s.service.UpdateProfile(r.Context(), p)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("update profile failed", "error", err)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}
