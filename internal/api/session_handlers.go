package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/chesstactics/internal/errors"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/services"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	info, err := s.SessionService.CreateSession(r.Context(), req.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusCreated
	if info.Resumed {
		status = http.StatusOK
	}
	writeJSON(w, r, status, info)
}

func (s *Server) handleNextPuzzle(w http.ResponseWriter, r *http.Request) {
	var req services.NextPuzzleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.SessionService.NextPuzzle(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req services.MoveRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	out, err := s.SessionService.Move(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	hint, err := s.SessionService.Hint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, hint)
}

func (s *Server) handleResetPuzzle(w http.ResponseWriter, r *http.Request) {
	setup, err := s.SessionService.ResetPuzzle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, setup)
}

func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	out, err := s.SessionService.GiveUp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleExportProgress(w http.ResponseWriter, r *http.Request) {
	data, err := s.SessionService.ExportProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to write progress: %v", err)
	}
}

func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("could not read request body"))
		return
	}
	if len(data) == 0 {
		handleError(w, r, errors.NewBadRequestError("request body required"))
		return
	}

	if err := s.SessionService.ImportProgress(r.Context(), chi.URLParam(r, "id"), data); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.SessionService.ResetProgress(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.SessionService.Recommendations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recs)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleError(w, r, err)
		return
	}
	q := r.URL.Query()

	page, err := s.SessionService.History(r.Context(), chi.URLParam(r, "id"), services.HistoryRequest{
		Theme:  q.Get("theme"),
		Result: q.Get("result"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}
