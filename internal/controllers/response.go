package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// subredditBody is the payload of the action endpoints.
type subredditBody struct {
	SubredditName string `json:"subredditName"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, gson)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrUnknownAction),
		errors.Is(err, models.ErrUnknownTemplate),
		errors.Is(err, models.ErrInsufficientResources):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrOnCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrPlatform):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code. Server side failures are logged and
// their details kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, logger providers.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %s", r.Method, r.URL.Path, err)
		if status == http.StatusInternalServerError {
			message = "Internal Server Error"
		}
	}

	var cd *models.CooldownError
	if errors.As(err, &cd) {
		seconds := int(cd.Remaining.Seconds() + 0.999)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// decodeBody reads a size-limited JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: unreadable body: %s", models.ErrValidation, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", models.ErrValidation)
	}
	return nil
}

func currentUser(r *http.Request) (string, error) {
	username, ok := providers.UsernameFromContext(r.Context())
	if !ok {
		return "", models.ErrUnauthenticated
	}
	return username, nil
}
