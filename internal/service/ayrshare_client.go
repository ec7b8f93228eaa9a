package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	config "github.com/crosswire-app/crosswire/configs"
	"github.com/crosswire-app/crosswire/internal/transfer"
)

const ayrshareTimeout = 30 * time.Second

// AyrshareClient wraps the provider's publish API. It only reports transport
// and decoding problems as errors; provider-level failures come back inside
// the response body and are classified by the orchestrator.
type AyrshareClient interface {
	CreatePost(ctx context.Context, req *transfer.AyrsharePostRequest, profileKey string) (*transfer.AyrshareResponse, error)
	CreateComment(ctx context.Context, req *transfer.AyrshareCommentRequest, profileKey string) (*transfer.AyrshareResponse, error)
	History(ctx context.Context, lastHours int, profileKey string) ([]transfer.AyrshareHistoryRecord, error)
}

type ayrshareClient struct {
	cfg    config.Config
	client *http.Client
}

func NewAyrshareClient(cfg config.Config) AyrshareClient {
	return &ayrshareClient{
		cfg:    cfg,
		client: &http.Client{Timeout: ayrshareTimeout},
	}
}

func (c *ayrshareClient) CreatePost(ctx context.Context, req *transfer.AyrsharePostRequest, profileKey string) (*transfer.AyrshareResponse, error) {
	return c.post(ctx, "/post", req, profileKey)
}

func (c *ayrshareClient) CreateComment(ctx context.Context, req *transfer.AyrshareCommentRequest, profileKey string) (*transfer.AyrshareResponse, error) {
	return c.post(ctx, "/comment", req, profileKey)
}

func (c *ayrshareClient) post(ctx context.Context, path string, body interface{}, profileKey string) (*transfer.AyrshareResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AyrshareBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, profileKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &NetworkError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "POST " + path, Err: err}
	}

	var out transfer.AyrshareResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &out, nil
}

func (c *ayrshareClient) History(ctx context.Context, lastHours int, profileKey string) ([]transfer.AyrshareHistoryRecord, error) {
	url := fmt.Sprintf("%s/history?lastHours=%d", c.cfg.AyrshareBaseURL, lastHours)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, profileKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &NetworkError{Op: "GET /history", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history endpoint returned status %d", resp.StatusCode)
	}

	var records []transfer.AyrshareHistoryRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	return records, nil
}

// setHeaders attaches the bearer credential and, only in multi-profile mode,
// the profile-scoping header. In single-profile mode the profile key is never
// transmitted.
func (c *ayrshareClient) setHeaders(req *http.Request, profileKey string) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AyrshareAPIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.MultiProfileMode && profileKey != "" {
		req.Header.Set("Profile-Key", profileKey)
	}
}
