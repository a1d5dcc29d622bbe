package chat_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	delays []time.Duration
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) {
	f.delays = append(f.delays, d)
}

func openRouterCfg(endpoint string) chat.ProviderConfig {
	cfg := chat.DefaultCatalog()[chat.ProviderOpenRouter]
	cfg.Endpoint = endpoint
	return cfg
}

const replyBody = `{"choices":[{"message":{"content":"El pH ideal está entre 6.5 y 8.5."}}]}`

func TestGateway_Reply_Success(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(replyBody))
	}))
	defer server.Close()

	completer := chat.NewOpenRouter("or-key", openRouterCfg(server.URL))
	gw := chat.NewGateway(completer, testLogger())

	session := &chat.Session{Provider: chat.ProviderOpenRouter}
	reply, err := gw.Reply(context.Background(), session, "¿Qué pH es seguro?")
	require.NoError(t, err)
	assert.Contains(t, reply, "6.5")
	assert.Equal(t, "Bearer or-key", gotAuth)
	// The gateway never mutates the session; the caller owns the history.
	assert.Empty(t, session.Turns)
}

func TestGateway_Reply_RateLimited_RetriesWithBackoff(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(replyBody))
	}))
	defer server.Close()

	sleeper := &fakeSleeper{}
	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger()).
		WithSleeper(sleeper.sleep)

	reply, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	assert.Equal(t, int64(3), calls.Load())
	require.Len(t, sleeper.delays, 2)
	assert.GreaterOrEqual(t, sleeper.delays[0], 1*time.Second)
	assert.GreaterOrEqual(t, sleeper.delays[1], 2*time.Second)
}

func TestGateway_Reply_RateLimited_RetryAfterHint(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "9")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(replyBody))
	}))
	defer server.Close()

	sleeper := &fakeSleeper{}
	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger()).
		WithSleeper(sleeper.sleep)

	_, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.NoError(t, err)
	require.Len(t, sleeper.delays, 1)
	assert.Equal(t, 9*time.Second, sleeper.delays[0])
}

func TestGateway_Reply_RateLimited_Exhausted(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sleeper := &fakeSleeper{}
	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger()).
		WithSleeper(sleeper.sleep)

	_, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.Error(t, err)

	// Three attempts total, no fourth.
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, chat.CategoryRateLimited, chat.AsAPIError(err).Category)
	assert.Equal(t, chat.MsgRateLimitExhausted, chat.UserMessage(err))
}

func TestGateway_Reply_Unauthorized_NoRetry(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	gw := chat.NewGateway(chat.NewOpenRouter("bad", openRouterCfg(server.URL)), testLogger())

	_, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, chat.CategoryUnauthorized, chat.AsAPIError(err).Category)
	assert.Equal(t, chat.MsgUnauthorized, chat.UserMessage(err))
}

func TestGateway_Reply_PaymentRequired_NoRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer server.Close()

	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger())

	_, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.Error(t, err)
	assert.Equal(t, chat.CategoryPayment, chat.AsAPIError(err).Category)
	assert.Equal(t, chat.MsgPaymentRequired, chat.UserMessage(err))
}

func TestGateway_Reply_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer server.Close()

	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger())

	_, err := gw.Reply(context.Background(), &chat.Session{}, "hola")
	require.Error(t, err)
	assert.Equal(t, chat.CategoryMalformed, chat.AsAPIError(err).Category)
	assert.Equal(t, chat.MsgMalformed, chat.UserMessage(err))
}

func TestGateway_Reply_SendsHistoryAndPreamble(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(replyBody))
	}))
	defer server.Close()

	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger())

	session := &chat.Session{}
	session.Append(chat.RoleUser, "¿Qué es la turbidez?")
	session.Append(chat.RoleAssistant, "Es la claridad del agua.")

	_, err := gw.Reply(context.Background(), session, "¿Y el valor seguro?")
	require.NoError(t, err)

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "Rangos seguros")
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "¿Y el valor seguro?", captured.Messages[3].Content)
}

func TestGateway_TrimsOversizedHistory(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(replyBody))
	}))
	defer server.Close()

	gw := chat.NewGateway(chat.NewOpenRouter("k", openRouterCfg(server.URL)), testLogger())

	session := &chat.Session{}
	long := strings.Repeat("agua potable ", 400)
	for i := 0; i < 10; i++ {
		session.Append(chat.RoleUser, long)
		session.Append(chat.RoleAssistant, long)
	}

	_, err := gw.Reply(context.Background(), session, "resumen")
	require.NoError(t, err)

	// Oldest turns were dropped; system preamble and new message remain.
	assert.Less(t, len(captured.Messages), 22)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "resumen", captured.Messages[len(captured.Messages)-1].Content)
}

func TestSession_AppendAndClear(t *testing.T) {
	s := &chat.Session{Provider: chat.ProviderOpenAI}
	s.Append(chat.RoleUser, "hola")
	s.Append(chat.RoleAssistant, "¡Hola!")

	require.Len(t, s.Turns, 2)
	assert.Equal(t, chat.RoleUser, s.Turns[0].Role)
	assert.Equal(t, chat.RoleAssistant, s.Turns[1].Role)

	s.Clear()
	assert.Empty(t, s.Turns)
}
