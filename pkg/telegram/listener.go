package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
)

// Listener long-polls the bot update stream and registers the sender of a
// /start command as the active alert recipient. It runs for the life of the
// host process, reconnecting after transport failures.
type Listener struct {
	client *Client
	store  pairing.Store
	logger *slog.Logger

	// PollTimeout is the long-poll hold in seconds.
	PollTimeout int
	// ReconnectDelay is the pause before re-polling after a transport error.
	ReconnectDelay time.Duration
}

// NewListener creates a listener bound to one bot identity and one store.
func NewListener(client *Client, store pairing.Store, logger *slog.Logger) *Listener {
	return &Listener{
		client:         client,
		store:          store,
		logger:         logger,
		PollTimeout:    50,
		ReconnectDelay: 5 * time.Second,
	}
}

// Run polls until ctx is cancelled. Poll failures are logged and followed by
// a reconnect delay; they never propagate past this loop.
func (l *Listener) Run(ctx context.Context) error {
	if !l.client.HasToken() {
		return ErrNoToken
	}

	l.logger.Info("pairing listener started")
	var offset int64

	for {
		updates, err := l.client.GetUpdates(ctx, offset, l.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("pairing listener stopped")
				return nil
			}
			l.logger.Warn("update poll failed, reconnecting", "error", err, "delay", l.ReconnectDelay)
			select {
			case <-ctx.Done():
				l.logger.Info("pairing listener stopped")
				return nil
			case <-time.After(l.ReconnectDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			l.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes one inbound event. Only the /start command is
// recognized; everything else is ignored.
func (l *Listener) handleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(msg.Text), "/start") {
		return
	}

	record := pairing.Record{
		ChatID:   msg.Chat.ID,
		Name:     msg.From.FirstName,
		Username: msg.From.Username,
	}
	if err := l.store.Put(record); err != nil {
		l.logger.Error("save pairing record", "chat_id", record.ChatID, "error", err)
		return
	}
	l.logger.Info("operator paired", "chat_id", record.ChatID, "name", record.Name)

	confirmation := fmt.Sprintf(
		"👋 ¡Hola %s!\n\nTe he registrado correctamente.\nAhora ve al Dashboard y presiona 'Sincronizar' para recibir las alertas aquí.",
		record.Name,
	)
	// The registration already succeeded; a failed acknowledgment is logged
	// and not retried.
	if err := l.client.SendMessage(ctx, record.ChatID, confirmation); err != nil {
		l.logger.Warn("pairing confirmation failed", "chat_id", record.ChatID, "error", err)
	}
}

var (
	startMu sync.Mutex
	started = make(map[string]bool)
)

// StartOnce launches Run in its own goroutine, at most once per bot identity
// for the life of the process. It reports whether this call started the
// listener; repeated bootstraps are no-ops.
func (l *Listener) StartOnce(ctx context.Context) bool {
	startMu.Lock()
	defer startMu.Unlock()

	key := l.client.Identity()
	if started[key] {
		return false
	}
	started[key] = true

	go func() {
		if err := l.Run(ctx); err != nil {
			l.logger.Error("pairing listener disabled", "error", err)
		}
	}()
	return true
}
