package wps

// LQI holds the rolling link-quality counters of spec.md C3: one overall
// counter, one that excludes unused/sync-only slots, and one per channel,
// matching wps_def.h's `lqi_t lqi; lqi_t used_frame_lqi; lqi_t
// channel_lqi[channel]` layout. The underlying link_lqi module was not
// part of the retained source set; the accumulation rule below (running
// average of RSSI/RNSI plus an outcome tally) is this package's
// reconstruction of that one-line spec description.
type LQI struct {
	all        lqiCounter
	usedFrames lqiCounter
	perChannel [MaxChannels]lqiCounter
}

type lqiCounter struct {
	Count        uint32
	ReceivedOK   uint32
	Rejected     uint32
	Lost         uint32
	AvgRSSITenth int32
	AvgRNSITenth int32
}

func (c *lqiCounter) update(outcome FrameOutcome, rssiTenth, rnsiTenth int32) {
	c.Count++
	switch outcome {
	case OutcomeReceived, OutcomeSentAck:
		c.ReceivedOK++
	case OutcomeRejected, OutcomeSentAckLost:
		c.Rejected++
	case OutcomeLost:
		c.Lost++
	}
	// Exponential moving average, alpha = 1/8, integer arithmetic to stay
	// allocation-free on the IRQ context. Each step moves at least one unit
	// toward a differing sample, so the average reaches a constant input.
	c.AvgRSSITenth = emaStep(c.AvgRSSITenth, rssiTenth)
	c.AvgRNSITenth = emaStep(c.AvgRNSITenth, rnsiTenth)
}

func emaStep(avg, sample int32) int32 {
	step := (sample - avg) / 8
	if step == 0 && sample > avg {
		step = 1
	} else if step == 0 && sample < avg {
		step = -1
	}
	return avg + step
}

// Update records one slot's outcome against the overall, used-frame, and
// per-channel counters. usedFrame should be false for sync-only beacons
// that carry no application payload.
func (l *LQI) Update(ch ChannelID, outcome FrameOutcome, usedFrame bool, rssiTenth, rnsiTenth int32) {
	l.all.update(outcome, rssiTenth, rnsiTenth)
	if usedFrame {
		l.usedFrames.update(outcome, rssiTenth, rnsiTenth)
	}
	l.perChannel[ch].update(outcome, rssiTenth, rnsiTenth)
}

// Channel returns a copy of a channel's accumulated counters. The
// multi-radio arbiter does not read it; it keeps its own RSSI history.
func (l *LQI) Channel(ch ChannelID) lqiCounter {
	return l.perChannel[ch]
}

// AvgRSSITenth returns the channel's smoothed RSSI in tenths of a dB.
func (l *LQI) AvgRSSITenth(ch ChannelID) int32 {
	return l.perChannel[ch].AvgRSSITenth
}
