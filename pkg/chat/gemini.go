package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Gemini calls the Google Generative Language API. Unlike the other
// providers it takes no role-tagged message list: the preamble, history and
// new message are flattened into a single prompt string.
type Gemini struct {
	apiKey string
	cfg    ProviderConfig
	client *http.Client
}

// NewGemini creates the Gemini adapter.
func NewGemini(apiKey string, cfg ProviderConfig) *Gemini {
	return &Gemini{
		apiKey: apiKey,
		cfg:    cfg,
		client: &http.Client{Timeout: callTimeout},
	}
}

func (g *Gemini) Name() string  { return ProviderGemini }
func (g *Gemini) Model() string { return g.cfg.Model }

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// BuildPrompt flattens the conversation into Gemini's single-prompt shape.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(req.Preamble)
	b.WriteString("\n\n")
	for _, turn := range req.History {
		role := "Usuario"
		if turn.Role == RoleAssistant {
			role = "Asistente"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
	}
	fmt.Fprintf(&b, "Usuario: %s\nAsistente:", req.Message)
	return b.String()
}

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: BuildPrompt(req)}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     g.cfg.Temperature,
			MaxOutputTokens: g.cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.cfg.Endpoint, g.cfg.Model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &APIError{Category: CategoryMalformed, Message: err.Error()}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &APIError{Category: CategoryMalformed, Message: "response has no candidates"}
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
