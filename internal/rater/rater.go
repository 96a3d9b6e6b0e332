// Package rater rates commit significance through an OpenAI-compatible chat completions API.
package rater

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Request parameters of every rating call.
const (
	maxTokens   = 10
	temperature = 0
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// ChatRater calls the chat completions endpoint of an OpenAI-compatible server.
type ChatRater struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ contract.SignificanceRater = &ChatRater{} // Compile-time check

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New returns the rater selected by the configuration, or nil when rating is disabled.
func New(cfg *contract.Config) contract.SignificanceRater {
	if cfg.Rater != schema.OpenAIRater {
		return nil
	}
	return NewChatRater(http.DefaultClient, cfg.RaterBaseURL, cfg.RaterAPIKey, cfg.RaterModel)
}

// NewChatRater creates a rater against baseURL, e.g. https://api.openai.com/v1.
func NewChatRater(client *http.Client, baseURL, apiKey, model string) *ChatRater {
	return &ChatRater{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

// Model implements the SignificanceRater interface.
func (r *ChatRater) Model() string { return r.model }

// Rate sends the prompt as a single user message and returns the reply text.
func (r *ChatRater) Rate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       r.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rater request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("rater returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding rater response: %w", err)
	}
	if parsed.Error != nil {
		return "", errors.New(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("rater returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
