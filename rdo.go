package wps

import "math/rand"

/*
RDOState generates the random data-rate offset of spec.md C7: a small
per-slot sleep-time jitter that decorrelates lock-step collisions between
nodes sharing a superframe layout. The offset rolls over at Rollover so it
fits the header field sized for it (header.go) and stays bounded.

spec.md §9 flags that whether the wire field is signed or unsigned was not
pinned down by the original sizing routine. This package resolves it as
unsigned: the offset is drawn from [0, Rollover) and encoded as an unsigned
header field, which requires no sign-extension handling in the header
codec. The MAC carries the offset only in the header; it does not add it to
the sleep budget it passes to tdma_sync.
*/
type RDOState struct {
	enabled  bool
	rollover uint16
	current  uint16
}

func NewRDOState(enabled bool, rollover uint16) *RDOState {
	return &RDOState{enabled: enabled, rollover: rollover}
}

// Next draws a new offset in [0, rollover) for the upcoming slot. No-op,
// returning 0, when RDO is disabled.
func (r *RDOState) Next() uint16 {
	if !r.enabled || r.rollover == 0 {
		r.current = 0
		return 0
	}
	r.current = uint16(rand.Intn(int(r.rollover)))
	return r.current
}

// Current returns the offset drawn for the in-progress slot, for encoding
// into the header.
func (r *RDOState) Current() uint16 { return r.current }
