package controllers

import (
	"fmt"
	"net/http"

	"cinnarito/internal/chronicle/interfaces"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"
)

type ChronicleController struct {
	logger    providers.Logger
	service   services.ChronicleServiceInterface
	scheduler interfaces.SchedulerInterface
}

func NewChronicleController(logger providers.Logger, service services.ChronicleServiceInterface, scheduler interfaces.SchedulerInterface) *ChronicleController {
	return &ChronicleController{
		logger:    logger,
		service:   service,
		scheduler: scheduler,
	}
}

type generateBody struct {
	Type string `json:"type"`
	Post bool   `json:"post"`
}

type scheduleBody struct {
	Type     string `json:"type"`
	IsActive *bool  `json:"isActive"`
}

type schedulesResponse struct {
	Success   bool                       `json:"success"`
	Schedules []models.ChronicleSchedule `json:"schedules"`
}

// Generate renders a chronicle. Posting goes through the scheduler so a
// manual daily or weekly post also counts as that schedule's run.
func (cc *ChronicleController) Generate(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	body := generateBody{Type: string(models.ChronicleDaily)}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	kind, err := models.ParseChronicleType(body.Type)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}

	var res *models.ChronicleResult
	if body.Post {
		res, err = cc.scheduler.TriggerForSubreddit(r.Context(), sub, kind)
	} else {
		res, err = cc.service.Generate(r.Context(), sub, kind, false)
	}
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (cc *ChronicleController) Schedules(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}

	schedules, err := cc.service.GetSchedules(r.Context(), sub)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, schedulesResponse{Success: true, Schedules: schedules})
}

func (cc *ChronicleController) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	var body scheduleBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	if body.IsActive == nil {
		writeError(w, r, cc.logger, fmt.Errorf("%w: isActive is required", models.ErrValidation))
		return
	}
	kind, err := models.ParseChronicleType(body.Type)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}

	schedules, err := cc.service.SetScheduleActive(r.Context(), sub, kind, *body.IsActive)
	if err != nil {
		writeError(w, r, cc.logger, err)
		return
	}
	cc.logger.Infof(providers.TypePost, "r/%s %s chronicle active=%t", sub, kind, *body.IsActive)
	writeJSON(w, http.StatusOK, schedulesResponse{Success: true, Schedules: schedules})
}
