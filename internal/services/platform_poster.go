package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cinnarito/internal/models"
	"cinnarito/internal/providers"
	"cinnarito/internal/structures"

	json "github.com/goccy/go-json"
)

const defaultPlatformTimeout = 10 * time.Second

// PlatformPoster submits a post to a subreddit on the hosting platform.
type PlatformPoster interface {
	Submit(ctx context.Context, subreddit, title, content string) (*models.PostResult, error)
}

// NewPlatformPoster returns the HTTP bridge poster when the platform is
// enabled and a poster that only logs otherwise.
func NewPlatformPoster(conf *structures.Config, logger providers.Logger) PlatformPoster {
	if !conf.Platform.Enabled || conf.Platform.BaseURL == "" {
		logger.Infof(providers.TypeApp, "Platform posting disabled, chronicles will only be logged")
		return NewLogPoster(logger)
	}
	return NewHTTPPoster(conf.Platform, &http.Client{Timeout: platformTimeout(conf.Platform)})
}

func platformTimeout(p structures.PlatformConfig) time.Duration {
	if p.Timeout <= 0 {
		return defaultPlatformTimeout
	}
	return p.Timeout
}

type LogPoster struct {
	logger providers.Logger
}

func NewLogPoster(logger providers.Logger) *LogPoster {
	return &LogPoster{logger: logger}
}

func (p *LogPoster) Submit(_ context.Context, subreddit, title, content string) (*models.PostResult, error) {
	p.logger.Infof(providers.TypeApp, "Chronicle for r/%s: %s (%d bytes)", subreddit, title, len(content))
	return &models.PostResult{Success: true}, nil
}

type submitRequest struct {
	SubredditName string `json:"subredditName"`
	Title         string `json:"title"`
	Text          string `json:"text"`
}

type submitResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// HTTPPoster talks to the platform bridge that owns the Reddit session.
type HTTPPoster struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewHTTPPoster(conf structures.PlatformConfig, client *http.Client) *HTTPPoster {
	return &HTTPPoster{
		client:  client,
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
	}
}

func (p *HTTPPoster) Submit(ctx context.Context, subreddit, title, content string) (*models.PostResult, error) {
	body, err := json.Marshal(submitRequest{SubredditName: subreddit, Title: title, Text: content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrPlatform, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrPlatform, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %s", models.ErrPlatform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: bridge returned %d: %s", models.ErrPlatform, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out submitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %s", models.ErrPlatform, err)
	}
	return &models.PostResult{Success: true, PostID: out.ID, URL: out.URL}, nil
}
