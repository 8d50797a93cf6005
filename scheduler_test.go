package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchedule(n int) (*Schedule, *Connection) {
	conn := &Connection{isSource: false}
	slots := make([]Timeslot, n)
	for i := range slots {
		slots[i] = Timeslot{DurationPLLCycles: 100, ConnectionMain: conn}
	}
	return &Schedule{Timeslots: slots}, conn
}

func TestScheduler_WrapsAroundSuperframe(t *testing.T) {
	schedule, _ := newTestSchedule(4)
	s := NewScheduler(schedule, 0)
	s.SetFirstTimeSlot()

	seen := make([]int, 0, 8)
	for i := 0; i < 8; i++ {
		s.IncrementTimeSlot()
		seen = append(seen, s.CurrentIndex())
	}

	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2, 3}, seen)
}

func TestScheduler_SkipsEmptySlots(t *testing.T) {
	schedule, _ := newTestSchedule(4)
	schedule.Timeslots[1].ConnectionMain = nil
	schedule.Timeslots[2].ConnectionMain = nil

	s := NewScheduler(schedule, 0)
	s.SetFirstTimeSlot()

	s.IncrementTimeSlot()
	assert.Equal(t, 0, s.CurrentIndex())
	s.IncrementTimeSlot()
	assert.Equal(t, 3, s.CurrentIndex(), "slots 1 and 2 have no connection and must be skipped")
}

func TestScheduler_AccumulatesSleepCyclesOverSkippedSlots(t *testing.T) {
	schedule, _ := newTestSchedule(3)
	schedule.Timeslots[1].ConnectionMain = nil

	s := NewScheduler(schedule, 0)
	s.SetFirstTimeSlot()
	s.IncrementTimeSlot() // the first increment lands on slot 0
	s.ResetSleepCycles()

	s.IncrementTimeSlot()
	require.Equal(t, 2, s.CurrentIndex())
	assert.Equal(t, PLLCycles(200), s.SleepCycles(), "slot 1's duration accumulates into the sleep budget on the way to slot 2")
}

func TestScheduler_ThrottlePatternAlwaysResolvesToTheOnlySlot(t *testing.T) {
	schedule, conn := newTestSchedule(1)
	pattern, total := GenerateActivePattern(50)
	conn.pattern = pattern
	conn.patternTotalCount = total

	s := NewScheduler(schedule, 0)
	s.SetFirstTimeSlot()

	for i := 0; i < total*2; i++ {
		s.IncrementTimeSlot()
		assert.Equal(t, 0, s.CurrentIndex(), "the only slot in the schedule is always where the cursor lands once an active pattern position is found")
	}
}
