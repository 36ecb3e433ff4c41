package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/triplan/internal/models"
)

// WeekPayload mirrors the server's week import body without importing the
// server package (which would pull in pgx and other server-side dependencies).
type WeekPayload struct {
	Sessions []models.TrainingSession `json:"sessions"`
	Targets  models.TargetSet         `json:"targets"`
}

// Client sends generated weeks to the TriPlan server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the TriPlan server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CheckServer verifies the server is reachable before pushing.
func (c *Client) CheckServer() error {
	resp, err := c.httpClient.Get(c.serverURL + "/api/v1/me")
	if err != nil {
		return fmt.Errorf("reaching server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server check failed (status %d): %s", resp.StatusCode, body)
	}
	return nil
}

// PushWeek PUTs a week payload to the server.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) PushWeek(weekStart time.Time, payload WeekPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	url := fmt.Sprintf("%s/api/v1/weeks/%s", c.serverURL, weekStart.Format("2006-01-02"))

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("push failed (status %d): %s", resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			break
		}
	}

	return fmt.Errorf("after retries: %w", lastErr)
}
