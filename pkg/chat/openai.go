package chat

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI calls the OpenAI chat-completions API through the official-style
// client library.
type OpenAI struct {
	client *openai.Client
	cfg    ProviderConfig
}

// NewOpenAI creates the OpenAI adapter. An empty endpoint uses the library
// default; tests point it at a local server.
func NewOpenAI(apiKey string, cfg ProviderConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

func (o *OpenAI) Name() string  { return ProviderOpenAI }
func (o *OpenAI) Model() string { return o.cfg.Model }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.Preamble,
	})
	for _, turn := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &APIError{Category: CategoryMalformed, Message: "response has no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) *APIError {
	status := 0
	message := err.Error()

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		message = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return classifyTransportError(err)
	}

	classified := &APIError{Status: status, Message: message}
	switch status {
	case http.StatusTooManyRequests:
		classified.Category = CategoryRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		classified.Category = CategoryUnauthorized
	case http.StatusPaymentRequired:
		classified.Category = CategoryPayment
	default:
		classified.Category = CategoryOther
	}
	return classified
}
