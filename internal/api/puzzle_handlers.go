package api

import (
	"net/http"

	"github.com/vytor/chesstactics/internal/services"
)

func (s *Server) handleGeneratePuzzles(w http.ResponseWriter, r *http.Request) {
	var req services.GeneratePuzzlesRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleError(w, r, err)
		return
	}

	puzzles, err := s.PuzzleService.GeneratePuzzles(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"puzzles": puzzles})
}
