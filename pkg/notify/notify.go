package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/alert"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/history"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/telegram"
)

const sendTimeout = 10 * time.Second

// Dispatcher delivers alert messages to the paired chat, best effort. Every
// outcome is reported back to the caller; delivery failures are soft.
type Dispatcher struct {
	client *telegram.Client
	store  history.Store // optional dispatch log
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. store may be nil to skip logging
// dispatch outcomes.
func NewDispatcher(client *telegram.Client, store history.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, store: store, logger: logger}
}

// Dispatch performs exactly one send attempt and classifies the outcome.
// It never returns an error: a failed delivery comes back as
// delivered=false with a human-readable detail.
func (d *Dispatcher) Dispatch(ctx context.Context, message string, chatID int64) (delivered bool, detail string) {
	return d.dispatch(ctx, message, chatID, nil)
}

// DispatchEvent composes the alert message for an event and sends it to the
// paired recipient, logging the outcome to the dispatch history.
func (d *Dispatcher) DispatchEvent(ctx context.Context, event alert.Event, recipient pairing.Record) (delivered bool, detail string) {
	return d.dispatch(ctx, ComposeMessage(event), recipient.ChatID, event.Reasons)
}

func (d *Dispatcher) dispatch(ctx context.Context, message string, chatID int64, reasons []string) (bool, string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	delivered := true
	detail := "Enviado"
	if err := d.client.SendMessage(sendCtx, chatID, message); err != nil {
		delivered = false
		detail = err.Error()
		d.logger.Warn("alert delivery failed", "chat_id", chatID, "error", err)
	} else {
		d.logger.Info("alert delivered", "chat_id", chatID)
	}

	if d.store != nil {
		entry := &history.Entry{
			ChatID:    chatID,
			Message:   message,
			Reasons:   reasons,
			Delivered: delivered,
			Detail:    detail,
		}
		if err := d.store.Record(ctx, entry); err != nil {
			d.logger.Error("record dispatch outcome", "error", err)
		}
	}
	return delivered, detail
}

// ComposeMessage renders an alert event as the Markdown message sent to the
// operator. Sample values are listed in a stable order.
func ComposeMessage(event alert.Event) string {
	var b strings.Builder
	b.WriteString("🚨 *ALERTA DE CALIDAD DE AGUA* 🚨\n\n")
	b.WriteString("La muestra analizada fue clasificada como *NO SEGURA*.\n\n")

	b.WriteString("*Motivos:*\n")
	for _, reason := range event.Reasons {
		fmt.Fprintf(&b, "• %s\n", reason)
	}

	if len(event.Sample) > 0 {
		b.WriteString("\n*Valores de la muestra:*\n")
		names := make([]string, 0, len(event.Sample))
		for name := range event.Sample {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "• %s: %.2f\n", name, event.Sample[name])
		}
	}
	return b.String()
}
