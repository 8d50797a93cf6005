package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCCAState_ClearChannelProceedsImmediately(t *testing.T) {
	c := NewCCAState(CCAConfig{TryCount: 3, FailAction: CCAFailAbort})
	retry, proceed := c.Sense(true)
	assert.False(t, retry)
	assert.True(t, proceed)
	assert.Zero(t, c.FailureCount())
}

func TestCCAState_RetriesUntilTryCountExhausted(t *testing.T) {
	c := NewCCAState(CCAConfig{TryCount: 3, FailAction: CCAFailAbort})

	retry, proceed := c.Sense(false)
	assert.True(t, retry)
	assert.False(t, proceed)

	retry, proceed = c.Sense(false)
	assert.True(t, retry)
	assert.False(t, proceed)

	// third busy reading exhausts TryCount.
	retry, proceed = c.Sense(false)
	assert.False(t, retry)
	assert.False(t, proceed, "CCAFailAbort must not transmit once retries are exhausted")
	assert.Equal(t, uint32(1), c.FailureCount())
}

func TestCCAState_TransmitAnywayOnExhaustion(t *testing.T) {
	c := NewCCAState(CCAConfig{TryCount: 1, FailAction: CCAFailTransmitAnyway})

	retry, proceed := c.Sense(false)
	assert.False(t, retry)
	assert.True(t, proceed, "CCAFailTransmitAnyway must transmit once retries are exhausted")
	assert.Equal(t, uint32(1), c.FailureCount())
}

func TestCCAState_ResetClearsAttemptCounter(t *testing.T) {
	c := NewCCAState(CCAConfig{TryCount: 2, FailAction: CCAFailAbort})
	c.Sense(false)
	c.Reset()

	// after Reset, a fresh slot gets its full TryCount budget again.
	retry, _ := c.Sense(false)
	assert.True(t, retry)
}
