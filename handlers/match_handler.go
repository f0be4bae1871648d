package handlers

import (
	"net/http"

	"github.com/mhamdane/knockout-tour/scoring"
	"github.com/mhamdane/knockout-tour/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Outcome  scoring.Outcome `json:"outcome"`
		WinnerID int             `json:"winner_id"`
		Score    scoring.Score   `json:"score"`
		Override bool            `json:"override"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitResult(r.Context(), matchID, scoring.Result{
		Outcome:  input.Outcome,
		WinnerID: input.WinnerID,
		Score:    input.Score,
	}, input.Override)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
