package controllers

import (
	"net/http"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"
)

type GrowthController struct {
	logger  providers.Logger
	service services.GrowthServiceInterface
	cache   *providers.StateCache
}

func NewGrowthController(logger providers.Logger, service services.GrowthServiceInterface, cache *providers.StateCache) *GrowthController {
	return &GrowthController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type calculationResponse struct {
	Success bool `json:"success"`
	*models.GrowthCalculation
}

type dailyStatsResponse struct {
	Success    bool                     `json:"success"`
	DailyStats *models.DailyGrowthStats `json:"dailyStats"`
}

type growthHistoryResponse struct {
	Success bool                      `json:"success"`
	History []models.DailyGrowthStats `json:"history"`
}

type upvotesBody struct {
	Count int64 `json:"count"`
}

func (gc *GrowthController) Calculate(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}

	calc, err := gc.service.CalculateGrowth(r.Context(), sub)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	gc.cache.Invalidate(sub)
	writeJSON(w, http.StatusOK, calculationResponse{Success: true, GrowthCalculation: calc})
}

func (gc *GrowthController) History(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	days, err := intQuery(r, "days", services.DefaultHistoryDays)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}

	history, err := gc.service.GetGrowthHistory(r.Context(), sub, days)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, growthHistoryResponse{Success: true, History: history})
}

func (gc *GrowthController) Daily(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}

	stats, err := gc.service.GetDailyGrowthStats(r.Context(), sub, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyStatsResponse{Success: true, DailyStats: stats})
}

func (gc *GrowthController) Upvotes(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	var body upvotesBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, gc.logger, err)
		return
	}

	state, err := gc.service.AwardUpvotes(r.Context(), sub, body.Count)
	if err != nil {
		writeError(w, r, gc.logger, err)
		return
	}
	gc.cache.Invalidate(sub)
	writeJSON(w, http.StatusOK, stateResponse{Success: true, GameState: state})
}
