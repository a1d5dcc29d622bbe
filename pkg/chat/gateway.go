package chat

import (
	"context"
	"log/slog"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/tokenizer"
)

// contextTokenBudget bounds preamble + history + new message; older turns
// are dropped first when a conversation outgrows it.
const contextTokenBudget = 3000

// Gateway produces assistant replies through one provider adapter, with
// bounded retry on rate limiting. Switching providers means constructing a
// new Gateway; the session history lives with the caller and survives the
// switch.
type Gateway struct {
	completer Completer
	preamble  string
	sleep     Sleeper
	logger    *slog.Logger
}

// NewGateway wires a gateway around a provider adapter.
func NewGateway(completer Completer, logger *slog.Logger) *Gateway {
	return &Gateway{
		completer: completer,
		preamble:  DefaultPreamble,
		sleep:     defaultSleeper,
		logger:    logger,
	}
}

// WithPreamble overrides the system preamble.
func (g *Gateway) WithPreamble(preamble string) *Gateway {
	g.preamble = preamble
	return g
}

// WithSleeper overrides the retry sleeper. Tests use this to record delays.
func (g *Gateway) WithSleeper(sleep Sleeper) *Gateway {
	g.sleep = sleep
	return g
}

// Provider returns the active provider name.
func (g *Gateway) Provider() string { return g.completer.Name() }

// Reply produces the next assistant turn for the session plus one new user
// message. The session is not mutated; the caller appends both turns on
// success. Rate-limit failures are retried up to maxAttempts with
// exponential backoff (or the provider's retry hint); every other failure
// category returns immediately as a classified *APIError.
func (g *Gateway) Reply(ctx context.Context, session *Session, userMessage string) (string, error) {
	req := Request{
		Preamble: g.preamble,
		History:  g.trimHistory(session.Turns, userMessage),
		Message:  userMessage,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		reply, err := g.completer.Complete(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		apiErr := AsAPIError(err)
		if apiErr.Category != CategoryRateLimited || attempt == maxAttempts-1 {
			g.logger.Warn("chat completion failed",
				"provider", g.completer.Name(),
				"category", string(apiErr.Category),
				"attempt", attempt+1,
			)
			return "", err
		}

		delay := BackoffDelay(attempt, apiErr.RetryAfter)
		g.logger.Info("rate limited, backing off",
			"provider", g.completer.Name(),
			"attempt", attempt+1,
			"delay", delay,
		)
		g.sleep(ctx, delay)
		if ctx.Err() != nil {
			return "", &APIError{Category: CategoryTimeout, Message: ctx.Err().Error()}
		}
	}
	return "", lastErr
}

// trimHistory drops the oldest turns until preamble + history + message fit
// the context token budget. Token counts are estimated per provider.
func (g *Gateway) trimHistory(turns []Turn, userMessage string) []Turn {
	provider := g.completer.Name()
	model := g.completer.Model()
	for start := 0; start <= len(turns); start++ {
		kept := turns[start:]
		messages := make([]map[string]string, 0, len(kept)+2)
		messages = append(messages, map[string]string{"role": "system", "content": g.preamble})
		for _, turn := range kept {
			messages = append(messages, map[string]string{"role": string(turn.Role), "content": turn.Content})
		}
		messages = append(messages, map[string]string{"role": "user", "content": userMessage})

		count, err := tokenizer.CountChatTokens(messages, provider, model)
		if err != nil || count <= contextTokenBudget {
			return kept
		}
	}
	return nil
}
