package ai

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

	"freightmatch/internal/config"
)

// Client talks to an OpenAI-style chat-completions endpoint. It is the only
// network dependency of the pricing path and every failure is recoverable by
// the caller.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.AITimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.AIRateLimitRPS),
	}
}

// GenerateResponse sends a single-turn prompt and returns the raw completion
// text. Callers must treat the text as untrusted.
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	if err := c.cfg.Require("AI_API_KEY", c.cfg.AIAPIKey); err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.AIModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.AIMaxTokens,
		Temperature: c.cfg.AITemperature,
	})
	if err != nil {
		return "", err
	}

	c.limiter.WaitTurn()

	url := strings.TrimRight(c.cfg.AIBaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ai api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("ai api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("ai api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
