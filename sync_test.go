package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTDMASync_StartsUnsynced(t *testing.T) {
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	assert.False(t, s.IsSlaveSynced())
	assert.Equal(t, StateSyncing, s.SlaveState())
}

func TestTDMASync_LocksWhenRxArrivesAtTarget(t *testing.T) {
	// base target = setupTime + preambleBits + syncwordBits = 10+3+5 = 18.
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s.SlaveAdjust(OutcomeReceived, 18, nil)
	assert.True(t, s.IsSlaveSynced())
}

func TestTDMASync_RepeatedLossesFallBackToSyncing(t *testing.T) {
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s.SlaveAdjust(OutcomeReceived, 18, nil)
	assert.True(t, s.IsSlaveSynced())

	s.SlaveAdjust(OutcomeLost, 0, nil)
	assert.True(t, s.IsSlaveSynced(), "a single lost frame must not immediately desync, since frameLostMaxCount is 2")

	s.SlaveAdjust(OutcomeLost, 0, nil)
	assert.False(t, s.IsSlaveSynced(), "frameLostCount reaching frameLostMaxCount must drop back to syncing")
	assert.Equal(t, StateSyncing, s.SlaveState())
}

func TestTDMASync_ReceivedFrameResetsLostCounter(t *testing.T) {
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s.SlaveAdjust(OutcomeReceived, 18, nil)
	s.SlaveAdjust(OutcomeLost, 0, nil)
	s.SlaveAdjust(OutcomeReceived, 18, nil) // resets frameLostCount back to 0

	s.SlaveAdjust(OutcomeLost, 0, nil)
	assert.True(t, s.IsSlaveSynced(), "the lost-frame streak must restart after an intervening received frame")
}

func TestTDMASync_SlaveFindNudgesCoarselyOnMiss(t *testing.T) {
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s.UpdateTx(100, nil)
	before := s.SleepCycles()

	s.SlaveFind(OutcomeLost, 0, nil)
	s.UpdateTx(100, nil)
	assert.NotEqual(t, before, s.SleepCycles(), "a coarse unsync nudge must change the next slot's computed sleep budget")
}

func TestTDMASync_UpdateTxAddsSetupTimeAfterRx(t *testing.T) {
	s := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s.UpdateRx(100, nil)
	s.UpdateTx(100, nil)
	withTurnaround := s.SleepCycles()

	s2 := NewTDMASync(SleepIdle, 10, 2, 5, 3, 0)
	s2.UpdateTx(100, nil)
	s2.UpdateTx(100, nil)
	withoutTurnaround := s2.SleepCycles()

	assert.Greater(t, int64(withTurnaround), int64(withoutTurnaround), "an RX->TX transition must add one setup-time budget")
}
