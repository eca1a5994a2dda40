package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cinnarito/internal/chronicle/interfaces"

	json "github.com/goccy/go-json"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store     Pinger
	scheduler interfaces.SchedulerInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Redis         string  `json:"redis"`
	Scheduler     string  `json:"scheduler"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Redis:         "ok",
		Scheduler:     "stopped",
	}
	if hc.scheduler.IsRunning() {
		resp.Scheduler = "running"
	}

	status := http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := hc.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Redis = err.Error()
		status = http.StatusServiceUnavailable
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store Pinger, scheduler interfaces.SchedulerInterface) *HealthController {
	return &HealthController{
		store:     store,
		scheduler: scheduler,
		startTime: time.Now(),
	}
}
