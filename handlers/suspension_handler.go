package handlers

import (
	"net/http"

	"github.com/mhamdane/knockout-tour/services"
)

type SuspensionHandler struct {
	suspensionService services.SuspensionService
}

func NewSuspensionHandler(suspensionService services.SuspensionService) *SuspensionHandler {
	return &SuspensionHandler{suspensionService: suspensionService}
}

func (h *SuspensionHandler) ListForPlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	suspensions, err := h.suspensionService.ListForPlayer(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"suspensions": suspensions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
