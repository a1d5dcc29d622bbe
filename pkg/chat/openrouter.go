package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// OpenRouter calls the OpenRouter chat-completions API with a role-tagged
// message list and bearer authentication.
type OpenRouter struct {
	apiKey string
	cfg    ProviderConfig
	client *http.Client
}

// NewOpenRouter creates the OpenRouter adapter.
func NewOpenRouter(apiKey string, cfg ProviderConfig) *OpenRouter {
	return &OpenRouter{
		apiKey: apiKey,
		cfg:    cfg,
		client: &http.Client{Timeout: callTimeout},
	}
}

func (o *OpenRouter) Name() string  { return ProviderOpenRouter }
func (o *OpenRouter) Model() string { return o.cfg.Model }

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float32             `json:"temperature"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenRouter) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openRouterMessage, 0, len(req.History)+2)
	messages = append(messages, openRouterMessage{Role: "system", Content: req.Preamble})
	for _, turn := range req.History {
		messages = append(messages, openRouterMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(openRouterRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openrouter request: %w", err)
	}

	url := o.cfg.Endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openrouter request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp)
	}

	var parsed openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &APIError{Category: CategoryMalformed, Message: err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &APIError{Category: CategoryMalformed, Message: "response has no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// classifyStatus maps a non-200 HTTP response to a failure category and
// picks up the Retry-After hint on rate limiting.
func classifyStatus(resp *http.Response) *APIError {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode, Message: string(detail)}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		apiErr.Category = CategoryRateLimited
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.Category = CategoryUnauthorized
	case http.StatusPaymentRequired:
		apiErr.Category = CategoryPayment
	default:
		apiErr.Category = CategoryOther
	}
	return apiErr
}

// classifyTransportError distinguishes timeouts from other network failures.
func classifyTransportError(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Category: CategoryTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Category: CategoryTimeout, Message: err.Error()}
	}
	return &APIError{Category: CategoryNetwork, Message: err.Error()}
}
