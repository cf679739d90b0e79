// Package storeclient talks to the shortfeed HTTP API. It satisfies the store
// contracts of the feed loader and the moderation controller so both can run
// against a remote server.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/shortfeed/internal/video/domain"
	"github.com/romariotrain/shortfeed/internal/video/models"
)

type Config struct {
	BaseURL        string
	ModeratorToken string
	HTTPClient     *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: base, token: cfg.ModeratorToken, http: hc}, nil
}

type videoList struct {
	Videos []models.Video `json:"videos"`
}

func (c *Client) ListFeed(ctx context.Context) ([]models.Video, error) {
	var out videoList
	if err := c.do(ctx, http.MethodGet, "/videos/feed", nil, false, &out); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return out.Videos, nil
}

func (c *Client) ListQueue(ctx context.Context) ([]models.Video, error) {
	var out videoList
	if err := c.do(ctx, http.MethodGet, "/videos/queue", nil, true, &out); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return out.Videos, nil
}

// GetVideo sends the moderator token when one is configured, so videos that
// are not public yet can still be fetched.
func (c *Client) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var v models.Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+id.String(), nil, c.token != "", &v); err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	return &v, nil
}

func (c *Client) Decide(ctx context.Context, id uuid.UUID, decision domain.Decision) (*models.Video, error) {
	body, err := json.Marshal(map[string]string{"decision": string(decision)})
	if err != nil {
		return nil, err
	}
	var v models.Video
	if err := c.do(ctx, http.MethodPost, "/videos/"+id.String()+"/decision", body, true, &v); err != nil {
		return nil, fmt.Errorf("decide %s: %w", id, err)
	}
	return &v, nil
}

// StatusError is returned for non-2xx responses. It unwraps to the sentinel
// matching the status code so callers can use errors.Is across the wire.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusBadRequest:
		return models.ErrInvalidArgument
	case http.StatusConflict:
		return models.ErrConflict
	case http.StatusRequestEntityTooLarge:
		return models.ErrTooLarge
	case http.StatusUnsupportedMediaType:
		return models.ErrUnsupportedMedia
	default:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, moderator bool, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if moderator {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
