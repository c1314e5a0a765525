package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPAdvisor calls an external suggestion endpoint. Transport errors,
// timeouts, non-200 responses and empty suggestions all collapse to
// ErrUnavailable; the advisor must never throw into the workflow.
type HTTPAdvisor struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

type suggestionRequest struct {
	Description string `json:"description"`
}

type suggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

// NewHTTPAdvisor builds a client with a hard per-call timeout.
func NewHTTPAdvisor(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPAdvisor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPAdvisor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// GetSuggestion posts the description and returns the proposed solution.
func (a *HTTPAdvisor) GetSuggestion(ctx context.Context, description string) (string, error) {
	body, err := json.Marshal(suggestionRequest{Description: description})
	if err != nil {
		return "", ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ErrUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("advisor call failed", zap.Error(err))
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("advisor returned non-200", zap.Int("status", resp.StatusCode))
		return "", ErrUnavailable
	}

	var parsed suggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		a.logger.Warn("advisor response malformed", zap.Error(err))
		return "", ErrUnavailable
	}
	suggestion := strings.TrimSpace(parsed.Suggestion)
	if suggestion == "" {
		return "", ErrUnavailable
	}
	return suggestion, nil
}
