package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLQI_TracksPerChannelAndOverallCounters(t *testing.T) {
	l := &LQI{}

	l.Update(3, OutcomeReceived, true, 100, 50)
	l.Update(3, OutcomeLost, false, 0, 0)
	l.Update(5, OutcomeReceived, true, 200, 80)

	ch3 := l.Channel(3)
	assert.Equal(t, uint32(2), ch3.Count)
	assert.Equal(t, uint32(1), ch3.ReceivedOK)
	assert.Equal(t, uint32(1), ch3.Lost)

	ch5 := l.Channel(5)
	assert.Equal(t, uint32(1), ch5.Count)

	// channel 3 and channel 5 are independent counters.
	assert.NotEqual(t, ch3.Count, ch5.Count)
}

func TestLQI_UsedFramesExcludesBeacons(t *testing.T) {
	l := &LQI{}
	l.Update(0, OutcomeReceived, false, 100, 50) // beacon / sync-only, not a used frame
	l.Update(0, OutcomeReceived, true, 100, 50)

	assert.Equal(t, uint32(2), l.all.Count)
	assert.Equal(t, uint32(1), l.usedFrames.Count)
}

func TestLQI_AvgRSSIConvergesTowardObservedValue(t *testing.T) {
	l := &LQI{}
	for i := 0; i < 200; i++ {
		l.Update(0, OutcomeReceived, true, 80, 0)
	}
	assert.InDelta(t, 80, l.AvgRSSITenth(0), 1, "the exponential moving average should converge close to a constant input")
}
