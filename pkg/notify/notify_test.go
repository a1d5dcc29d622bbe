package notify_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/alert"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/history"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/notify"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/telegram"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	d := notify.NewDispatcher(telegram.NewClient("tok", server.URL), nil, testLogger())
	delivered, detail := d.Dispatch(context.Background(), "hola", 42)

	assert.True(t, delivered)
	assert.Equal(t, "Enviado", detail)
}

func TestDispatch_ServerError_SoftFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	d := notify.NewDispatcher(telegram.NewClient("tok", server.URL), nil, testLogger())
	delivered, detail := d.Dispatch(context.Background(), "hola", 42)

	assert.False(t, delivered)
	assert.NotEmpty(t, detail)
}

func TestDispatch_NoToken(t *testing.T) {
	d := notify.NewDispatcher(telegram.NewClient("", ""), nil, testLogger())
	delivered, detail := d.Dispatch(context.Background(), "hola", 42)

	assert.False(t, delivered)
	assert.Contains(t, detail, "token")
}

func TestDispatchEvent_RecordsHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store, err := history.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	d := notify.NewDispatcher(telegram.NewClient("tok", server.URL), store, testLogger())
	event := alert.Event{
		Triggered: true,
		Reasons:   []string{"IA detectó riesgo (Confianza: 83.0%)"},
		Sample:    map[string]float64{"ph": 7.0},
	}

	delivered, _ := d.DispatchEvent(context.Background(), event, pairing.Record{ChatID: 99, Name: "Eva"})
	assert.True(t, delivered)

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(99), entries[0].ChatID)
	assert.True(t, entries[0].Delivered)
	assert.Equal(t, event.Reasons, entries[0].Reasons)
}

func TestComposeMessage(t *testing.T) {
	event := alert.Event{
		Triggered: true,
		Reasons: []string{
			"IA detectó riesgo (Confianza: 83.0%)",
			"pH fuera del rango seguro 6.5-8.5 (Valor: 9.1)",
		},
		Sample: map[string]float64{"ph": 9.1, "Turbidity": 3.9},
	}

	msg := notify.ComposeMessage(event)

	assert.Contains(t, msg, "ALERTA DE CALIDAD DE AGUA")
	assert.Contains(t, msg, "IA detectó riesgo")
	assert.Contains(t, msg, "pH fuera del rango")
	// Sample values listed alphabetically for reproducible messages.
	assert.Greater(t, strings.Index(msg, "• ph:"), strings.Index(msg, "Turbidity"))
}
