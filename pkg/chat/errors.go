package chat

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies a provider failure. The category decides whether the
// gateway retries and which message the operator sees.
type Category string

const (
	CategoryRateLimited  Category = "rate_limited"
	CategoryUnauthorized Category = "unauthorized"
	CategoryPayment      Category = "payment_required"
	CategoryMalformed    Category = "malformed_response"
	CategoryTimeout      Category = "timeout"
	CategoryNetwork      Category = "network"
	CategoryOther        Category = "other"
)

// APIError is a classified provider failure.
type APIError struct {
	Category   Category
	Status     int           // HTTP status when applicable, 0 otherwise
	RetryAfter time.Duration // provider retry hint, 0 when absent
	Message    string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Category, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// AsAPIError unwraps err into an *APIError, defaulting to CategoryOther.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Category: CategoryOther, Message: err.Error()}
}

// Fixed operator-facing failure messages, one per category.
const (
	MsgRateLimitExhausted = "⏳ **Límite de requests alcanzado**\n\nPor favor espera 1 minuto e intenta de nuevo."
	MsgUnauthorized       = "❌ **API Key inválida**\n\nVerifica tu API key del proveedor."
	MsgPaymentRequired    = "💳 **Créditos insuficientes**\n\nEste modelo requiere créditos. Usa un modelo gratuito."
	MsgMalformed          = "❌ **Error en la respuesta**\n\nLa API retornó un formato inesperado."
	MsgTimeout            = "⏱️ **Timeout**\n\nLa respuesta tardó demasiado. Intenta de nuevo."
	MsgNetwork            = "🌐 **Error de conexión**\n\nNo se pudo contactar al proveedor."
)

// UserMessage renders a classified failure as the text shown in the chat
// panel. Unknown failures fall back to a generic message with the detail.
func UserMessage(err error) string {
	apiErr := AsAPIError(err)
	switch apiErr.Category {
	case CategoryRateLimited:
		return MsgRateLimitExhausted
	case CategoryUnauthorized:
		return MsgUnauthorized
	case CategoryPayment:
		return MsgPaymentRequired
	case CategoryMalformed:
		return MsgMalformed
	case CategoryTimeout:
		return MsgTimeout
	case CategoryNetwork:
		return MsgNetwork
	default:
		return fmt.Sprintf("❌ **Error inesperado**\n\n%s", apiErr.Message)
	}
}
