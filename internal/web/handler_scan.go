package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/mealmate/internal/flow"
	"github.com/vbonduro/mealmate/internal/service"
)

// scanResponse is a session snapshot plus the ingredients formatted for display.
type scanResponse struct {
	flow.Snapshot
	IngredientList string `json:"ingredientList"`
}

// writeSnapshot reports a session operation. The snapshot is written even when
// the operation failed so clients always see the current state; err only
// selects the status code.
func (s *Server) writeSnapshot(w http.ResponseWriter, okStatus int, snap flow.Snapshot, err error) {
	status := okStatus
	if err != nil {
		status = statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("scan operation failed", "session_id", snap.ID, "error", err)
		}
	}
	s.writeJSON(w, status, scanResponse{
		Snapshot:       snap,
		IngredientList: service.FormatIngredientList(snap.Ingredients),
	})
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	imageData, mimeType, ok := s.readImage(w, r)
	if !ok {
		return
	}

	session := s.service.CreateSession()
	snap, err := s.service.ScanImage(r.Context(), session.ID(), mimeType, imageData)
	s.writeSnapshot(w, http.StatusCreated, snap, err)
}

// handleRescan replaces the session's image. A scan still running in the
// session is superseded.
func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.service.Snapshot(id); err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	imageData, mimeType, ok := s.readImage(w, r)
	if !ok {
		return
	}

	snap, err := s.service.ScanImage(r.Context(), id, mimeType, imageData)
	s.writeSnapshot(w, http.StatusOK, snap, err)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeSnapshot(w, http.StatusOK, snap, nil)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoreRecipes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.MoreRecipes(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeSnapshot(w, http.StatusOK, snap, err)
}

type sortRequest struct {
	Sort string `json:"sort"`
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := s.service.SetSort(r.Context(), r.PathValue("id"), req.Sort)
	if errors.Is(err, service.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeSnapshot(w, http.StatusOK, snap, err)
}

func (s *Server) handleOpenRecipe(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.OpenRecipe(r.Context(), r.PathValue("id"), r.PathValue("rid"))
	if errors.Is(err, service.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeSnapshot(w, http.StatusOK, snap, err)
}
