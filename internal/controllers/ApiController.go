package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ApiController serves the game endpoints: session init, actions, state,
// player resources and action history.
type ApiController struct {
	logger  providers.Logger
	service services.ActionServiceInterface
	cache   *providers.StateCache
}

func NewApiController(logger providers.Logger, service services.ActionServiceInterface, cache *providers.StateCache) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

type stateResponse struct {
	Success   bool              `json:"success"`
	GameState *models.GameState `json:"gameState"`
}

type playerResponse struct {
	Success         bool                    `json:"success"`
	PlayerResources *models.PlayerResources `json:"playerResources"`
}

type historyResponse struct {
	Success bool                   `json:"success"`
	Actions []models.ActionHistory `json:"actions"`
}

func subredditParam(r *http.Request) (string, error) {
	sub := strings.TrimSpace(r.PathValue(providers.SubredditParam))
	if sub == "" {
		return "", fmt.Errorf("%w: subreddit name is required", models.ErrValidation)
	}
	return sub, nil
}

func (ac *ApiController) Init(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	username, err := currentUser(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}

	res, err := ac.service.Init(r.Context(), username, sub)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Action returns the handler for one action type. The subreddit comes from
// the JSON body.
func (ac *ApiController) Action(action models.ActionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body subredditBody
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, r, ac.logger, err)
			return
		}
		username, err := currentUser(r)
		if err != nil {
			writeError(w, r, ac.logger, err)
			return
		}

		res, err := ac.service.Perform(r.Context(), username, body.SubredditName, action)
		if err != nil {
			writeError(w, r, ac.logger, err)
			return
		}
		ac.cache.Invalidate(body.SubredditName)
		ac.logger.Debugf(providers.TypePost, "%s by %s in r/%s", action, username, body.SubredditName)
		writeJSON(w, http.StatusOK, res)
	}
}

func (ac *ApiController) Collect(w http.ResponseWriter, r *http.Request) {
	var body subredditBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	username, err := currentUser(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}

	res, err := ac.service.Collect(r.Context(), username, body.SubredditName)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetState answers conditional requests with 304 when the client already
// holds the current representation.
func (ac *ApiController) GetState(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}

	body, gen, ok := ac.cache.Get(sub)
	if !ok {
		state, err := ac.service.GetState(r.Context(), sub)
		if err != nil {
			writeError(w, r, ac.logger, err)
			return
		}
		body, err = json.Marshal(stateResponse{Success: true, GameState: state})
		if err != nil {
			writeError(w, r, ac.logger, err)
			return
		}
		ac.cache.Fill(sub, gen, body)
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	updatedAt := gjson.GetBytes(body, "gameState.updatedAt").Time().UTC().Truncate(time.Second)

	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", updatedAt.Format(http.TimeFormat))
	w.Header().Set("Cache-Control", "no-cache")

	if notModified(r, etag, updatedAt) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// notModified follows RFC 9110: If-None-Match wins over If-Modified-Since.
func notModified(r *http.Request, etag string, lastModified time.Time) bool {
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		for _, candidate := range strings.Split(inm, ",") {
			candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
			if candidate == etag || candidate == "*" {
				return true
			}
		}
		return false
	}
	if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		since, err := http.ParseTime(ims)
		if err != nil {
			return false
		}
		return !lastModified.After(since)
	}
	return false
}

func (ac *ApiController) GetPlayer(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	username, err := currentUser(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}

	player, err := ac.service.GetPlayer(r.Context(), username, sub)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Success: true, PlayerResources: player})
}

func (ac *ApiController) GetActions(w http.ResponseWriter, r *http.Request) {
	sub, err := subredditParam(r)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	limit, err := intQuery(r, "limit", services.DefaultHistoryLimit)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}

	history, err := ac.service.GetHistory(r.Context(), sub, limit)
	if err != nil {
		writeError(w, r, ac.logger, err)
		return
	}
	if history == nil {
		history = []models.ActionHistory{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Actions: history})
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrValidation, name)
	}
	return v, nil
}
