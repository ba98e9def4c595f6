package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrServiceUnavailable = errors.New("suggestion service unavailable")

const retryBackoff = 500 * time.Millisecond

// Suggestion is one proposed key result for an objective.
type Suggestion struct {
	Title       string `json:"title"`
	TargetValue string `json:"target_value,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// Client calls the external suggestion service.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c.url != ""
}

type suggestRequest struct {
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	ExistingKeyResults []string `json:"existing_key_results,omitempty"`
}

type suggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Fetch asks the service for key-result suggestions, retrying once with
// a fixed backoff.
func (c *Client) Fetch(ctx context.Context, title, category string, existing []string) ([]Suggestion, error) {
	if !c.Enabled() {
		return nil, ErrServiceUnavailable
	}

	suggestions, err := c.fetchOnce(ctx, title, category, existing)
	if err == nil {
		return suggestions, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}

	return c.fetchOnce(ctx, title, category, existing)
}

func (c *Client) fetchOnce(ctx context.Context, title, category string, existing []string) ([]Suggestion, error) {
	body, err := json.Marshal(suggestRequest{
		Title:              title,
		Category:           category,
		ExistingKeyResults: existing,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling suggestion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion service returned status %d", resp.StatusCode)
	}

	var parsed suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}

	return parsed.Suggestions, nil
}
