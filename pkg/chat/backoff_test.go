package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/chat"
)

func TestBackoffDelay_Exponential(t *testing.T) {
	assert.Equal(t, 1*time.Second, chat.BackoffDelay(0, 0))
	assert.Equal(t, 2*time.Second, chat.BackoffDelay(1, 0))
	assert.Equal(t, 4*time.Second, chat.BackoffDelay(2, 0))
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	assert.Equal(t, 60*time.Second, chat.BackoffDelay(10, 0))
}

func TestBackoffDelay_HintOverrides(t *testing.T) {
	assert.Equal(t, 7*time.Second, chat.BackoffDelay(0, 7*time.Second))
	assert.Equal(t, 90*time.Second, chat.BackoffDelay(2, 90*time.Second))
}
