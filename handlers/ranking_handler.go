package handlers

import (
	"net/http"
	"strconv"

	"github.com/mhamdane/knockout-tour/models"
	"github.com/mhamdane/knockout-tour/repositories"
	"github.com/mhamdane/knockout-tour/services"
	"github.com/mhamdane/knockout-tour/utils"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rankingService services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

func (h *RankingHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	entries, week, err := h.rankingService.PublishWeekly(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	payload := jsonResponse{
		"year":     week.Year,
		"week":     week.Week,
		"rankings": entries,
	}
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler serves a published week, or the latest one when no year/week
// query parameters are given. Optional age_category_id and sex narrow the
// partition.
func (h *RankingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRankingFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	yearRaw, weekRaw := query.Get("year"), query.Get("week")

	var entries []models.WeeklyRankingEntry
	var week utils.ISOWeek

	if yearRaw == "" && weekRaw == "" {
		entries, week, err = h.rankingService.GetLatest(r.Context(), filter)
	} else {
		week.Year, err = strconv.Atoi(yearRaw)
		if err == nil {
			week.Week, err = strconv.Atoi(weekRaw)
		}
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		entries, err = h.rankingService.GetWeekly(r.Context(), week, filter)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	payload := jsonResponse{
		"year":     week.Year,
		"week":     week.Week,
		"rankings": entries,
	}
	if err := writeJSON(w, http.StatusOK, payload, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseRankingFilter(r *http.Request) (repositories.RankingFilter, error) {
	var filter repositories.RankingFilter
	query := r.URL.Query()

	if raw := query.Get("age_category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.AgeCategoryID = &id
	}
	if raw := query.Get("sex"); raw != "" {
		sex := models.Sex(raw)
		if !sex.Valid() {
			return filter, services.ErrValidationFailed
		}
		filter.Sex = &sex
	}
	return filter, nil
}
