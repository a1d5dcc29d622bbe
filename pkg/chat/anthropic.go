package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const anthropicVersion = "2023-06-01"

// Anthropic calls the Anthropic Messages API. The preamble travels in the
// dedicated system field rather than as a message.
type Anthropic struct {
	apiKey string
	cfg    ProviderConfig
	client *http.Client
}

// NewAnthropic creates the Anthropic adapter.
func NewAnthropic(apiKey string, cfg ProviderConfig) *Anthropic {
	return &Anthropic{
		apiKey: apiKey,
		cfg:    cfg,
		client: &http.Client{Timeout: callTimeout},
	}
}

func (a *Anthropic) Name() string  { return ProviderAnthropic }
func (a *Anthropic) Model() string { return a.cfg.Model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]anthropicMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		messages = append(messages, anthropicMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, anthropicMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(anthropicRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      req.Preamble,
		Temperature: a.cfg.Temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	url := a.cfg.Endpoint + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &APIError{Category: CategoryMalformed, Message: err.Error()}
	}
	if len(parsed.Content) == 0 {
		return "", &APIError{Category: CategoryMalformed, Message: "response has no content"}
	}
	return parsed.Content[0].Text, nil
}
