package wps

/*
Scheduler walks the superframe (spec.md §4.4), grounded on the original
link_scheduler module. It owns the cursor into a Schedule and a running
sleep-cycle accumulator for the slots it has skipped over, and applies a
connection's throttle pattern before handing the caller the next non-empty
slot.
*/
type Scheduler struct {
	schedule  *Schedule
	localAddr Address

	currentIndex int
	sleepCycles  PLLCycles
	txDisabled   bool
	mismatch     bool
}

// NewScheduler attaches a scheduler to a fixed-size Schedule.
func NewScheduler(schedule *Schedule, localAddr Address) *Scheduler {
	return &Scheduler{schedule: schedule, localAddr: localAddr}
}

// SetFirstTimeSlot positions the cursor so that the first forward
// IncrementTimeSlot lands on index 0.
func (s *Scheduler) SetFirstTimeSlot() {
	if len(s.schedule.Timeslots) > 1 {
		s.currentIndex = len(s.schedule.Timeslots) - 1
	}
}

func (s *Scheduler) EnableTx()  { s.txDisabled = false }
func (s *Scheduler) DisableTx() { s.txDisabled = true }

// CurrentTimeslot returns the timeslot at the cursor.
func (s *Scheduler) CurrentTimeslot() *Timeslot {
	return &s.schedule.Timeslots[s.currentIndex]
}

// CurrentIndex returns the cursor position.
func (s *Scheduler) CurrentIndex() int { return s.currentIndex }

// SleepCycles returns the accumulated sleep budget since the last
// non-skipped slot.
func (s *Scheduler) SleepCycles() PLLCycles { return s.sleepCycles }

// ResetSleepCycles zeroes the accumulator once the MAC has consumed it.
func (s *Scheduler) ResetSleepCycles() { s.sleepCycles = 0 }

func (s *Scheduler) SetMismatch()      { s.mismatch = true }
func (s *Scheduler) Mismatch() bool    { return s.mismatch }

// timeslotIsEmpty mirrors time_slot_is_empty: a slot with no main
// connection is empty, and so is a slot whose main connection is this
// node's own TX while TX is administratively disabled.
func (s *Scheduler) timeslotIsEmpty(ts *Timeslot) bool {
	if ts.ConnectionMain == nil {
		return true
	}
	return s.txDisabled && ts.ConnectionMain.Config.Source == s.localAddr
}

// IncrementTimeSlot advances the cursor past the current slot, accumulating
// its duration into the sleep budget, then keeps advancing (and
// accumulating) through any run of empty slots and any run of throttled-off
// positions on a connection's duty-cycle pattern. It returns the number of
// slots advanced.
func (s *Scheduler) IncrementTimeSlot() int {
	total := len(s.schedule.Timeslots)
	s.mismatch = false

	if total == 0 {
		return 0
	}

	i := s.currentIndex
	incCount := 0

	advance := func() {
		s.sleepCycles += s.schedule.Timeslots[i].DurationPLLCycles
		i = (i + 1) % total
		incCount++
	}

	advance()
	for s.timeslotIsEmpty(&s.schedule.Timeslots[i]) {
		advance()
	}
	for s.throttledOff(&s.schedule.Timeslots[i]) {
		advance()
		for s.timeslotIsEmpty(&s.schedule.Timeslots[i]) {
			advance()
		}
	}

	s.currentIndex = i
	return incCount
}

// throttledOff advances a slot's main connection throttle-pattern cursor
// and reports whether the resulting position is inactive, per spec.md
// §4.4/§4.8.
func (s *Scheduler) throttledOff(ts *Timeslot) bool {
	conn := ts.ConnectionMain
	if conn == nil || conn.pattern == nil {
		return false
	}
	conn.patternCount = (conn.patternCount + 1) % conn.patternTotalCount
	return !conn.pattern[conn.patternCount]
}
