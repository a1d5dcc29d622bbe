package telegram_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/telegram"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBotAPI serves getUpdates from a queue of canned responses and records
// sendMessage calls.
type fakeBotAPI struct {
	updates chan string
	sent    chan map[string]any
}

func newFakeBotAPI() *fakeBotAPI {
	return &fakeBotAPI{
		updates: make(chan string, 8),
		sent:    make(chan map[string]any, 8),
	}
}

func (f *fakeBotAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			select {
			case resp := <-f.updates:
				w.Write([]byte(resp))
			case <-time.After(20 * time.Millisecond):
				w.Write([]byte(`{"ok":true,"result":[]}`))
			}
		default: // sendMessage
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.sent <- body
			w.Write([]byte(`{"ok":true}`))
		}
	})
}

func startUpdate(updateID, chatID int64, text, name, username string) string {
	return fmt.Sprintf(`{"ok":true,"result":[
		{"update_id":%d,"message":{"text":%q,"chat":{"id":%d},"from":{"id":%d,"first_name":%q,"username":%q}}}
	]}`, updateID, text, chatID, chatID, name, username)
}

func TestListener_StartCommand_PairsAndConfirms(t *testing.T) {
	api := newFakeBotAPI()
	server := httptest.NewServer(api.handler())
	defer server.Close()

	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("tok-pair", server.URL), store, testLogger())

	api.updates <- startUpdate(1, 555, "/start", "Carla", "carla_ops")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	select {
	case sent := <-api.sent:
		assert.Contains(t, sent["text"].(string), "Carla")
		assert.Equal(t, float64(555), sent["chat_id"])
	case <-time.After(3 * time.Second):
		t.Fatal("confirmation was never sent")
	}

	record, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, pairing.Record{ChatID: 555, Name: "Carla", Username: "carla_ops"}, record)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not stop on cancel")
	}
}

func TestListener_IgnoresUnknownCommands(t *testing.T) {
	api := newFakeBotAPI()
	server := httptest.NewServer(api.handler())
	defer server.Close()

	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("tok-ignore", server.URL), store, testLogger())

	api.updates <- startUpdate(1, 777, "/help", "Pedro", "")
	api.updates <- startUpdate(2, 888, "hola bot", "Rosa", "")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = listener.Run(ctx)

	_, err := store.Get()
	assert.ErrorIs(t, err, pairing.ErrNotPaired)
	assert.Empty(t, api.sent)
}

func TestListener_LastWriterWins(t *testing.T) {
	api := newFakeBotAPI()
	server := httptest.NewServer(api.handler())
	defer server.Close()

	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("tok-lww", server.URL), store, testLogger())

	api.updates <- startUpdate(1, 100, "/start", "Primero", "")
	api.updates <- startUpdate(2, 200, "/start", "Segundo", "")

	ctx, cancel := context.WithCancel(context.Background())
	go listener.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-api.sent:
		case <-time.After(3 * time.Second):
			t.Fatal("expected two confirmations")
		}
	}
	cancel()

	record, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(200), record.ChatID)
}

func TestListener_ReconnectsAfterPollFailure(t *testing.T) {
	var failed atomic.Bool
	api := newFakeBotAPI()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !failed.Swap(true) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		api.handler().ServeHTTP(w, r)
	}))
	defer server.Close()

	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("tok-reconnect", server.URL), store, testLogger())
	listener.ReconnectDelay = 10 * time.Millisecond

	api.updates <- startUpdate(1, 321, "/start", "Nadia", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	select {
	case <-api.sent:
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not recover from poll failure")
	}

	record, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(321), record.ChatID)
}

func TestListener_Run_NoToken(t *testing.T) {
	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("", ""), store, testLogger())

	err := listener.Run(context.Background())
	assert.ErrorIs(t, err, telegram.ErrNoToken)
}

func TestListener_StartOnce_Idempotent(t *testing.T) {
	api := newFakeBotAPI()
	server := httptest.NewServer(api.handler())
	defer server.Close()

	store := pairing.NewFileStore(filepath.Join(t.TempDir(), "pairing.json"))
	listener := telegram.NewListener(telegram.NewClient("tok-once", server.URL), store, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.True(t, listener.StartOnce(ctx))
	assert.False(t, listener.StartOnce(ctx))

	// A second listener against the same bot identity must not start either.
	other := telegram.NewListener(telegram.NewClient("tok-once", server.URL), store, testLogger())
	assert.False(t, other.StartOnce(ctx))
}
