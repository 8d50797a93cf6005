package wps

/*
ARQState implements the one-bit stop-and-wait ARQ of spec.md §4.3,
grounded on the original link_saw_arq module: a single sequence bit per
connection, duplicate suppression on the receive side, and a timeout that
combines a retry-count deadline with a wall-clock deadline.
*/
type ARQState struct {
	Enabled bool

	seqNum         bool
	duplicate      bool
	duplicateCount uint32
	retryCount     uint32

	ttlQtrMS   QuarterMS
	ttlRetries int
}

// NewARQState seeds the sender's sequence bit at 0 and the receiver's
// expected bit from whether the local address is the connection's
// destination, so the very first frame of a session is never mistaken for
// a duplicate (spec.md §4.3).
func NewARQState(cfg ARQConfig, enabled bool, localIsDestination bool) *ARQState {
	return &ARQState{
		Enabled:    enabled,
		seqNum:     localIsDestination,
		ttlQtrMS:   cfg.TimeDeadlineQtrMS,
		ttlRetries: cfg.RetryCount,
	}
}

// SeqNum returns the sender's current one-bit sequence number.
func (a *ARQState) SeqNum() bool { return a.seqNum }

// IncSeqNum flips the sender's bit on a positive ACK.
func (a *ARQState) IncSeqNum() { a.seqNum = !a.seqNum }

// UpdateRxSeqNum compares an inbound frame's sequence bit to the expected
// one, latching the duplicate flag for IsRxFrameDuplicate, then adopts the
// received bit as the new expectation.
func (a *ARQState) UpdateRxSeqNum(seqNum bool) {
	a.duplicate = seqNum == a.seqNum
	a.seqNum = seqNum
}

// IsRxFrameDuplicate reports (and counts) whether the most recently
// observed inbound sequence bit was a repeat.
func (a *ARQState) IsRxFrameDuplicate() bool {
	if !a.Enabled {
		return false
	}
	if a.duplicate {
		a.duplicateCount++
	}
	return a.duplicate
}

// IsFrameTimeout reports whether a frame enqueued at timeStamp, having
// been attempted retryCount times, should be dropped at currentTime.
//
// The open question flagged in spec.md §9 about whether retryCount should
// still increment when ttlRetries == 0 (infinite retries) is resolved here
// as: yes, the counter keeps incrementing for observability (it simply
// never reaches a limit that fires), matching the original's unconditional
// "if not timed out, count it" structure.
func (a *ARQState) IsFrameTimeout(timeStamp QuarterMS, retryCount int, currentTime QuarterMS) bool {
	if !a.Enabled {
		return true
	}

	delta := currentTime - timeStamp

	timeTimeout := a.ttlQtrMS != 0 && delta >= a.ttlQtrMS
	retriesTimeout := a.ttlRetries != 0 && retryCount >= a.ttlRetries
	timeout := timeTimeout || retriesTimeout

	if retryCount > 0 && !timeout {
		a.retryCount++
	}

	return timeout
}

// DuplicateCount returns the number of inbound frames dropped as repeats.
func (a *ARQState) DuplicateCount() uint32 { return a.duplicateCount }

// RetryCount returns the number of retransmission attempts observed.
func (a *ARQState) RetryCount() uint32 { return a.retryCount }

// ResetStats zeroes the retry/duplicate counters without touching the
// sequence state.
func (a *ARQState) ResetStats() {
	a.retryCount = 0
	a.duplicateCount = 0
}
