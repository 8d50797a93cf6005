package wps

// pllRatio is the number of PLL cycles per sleep-timer tick for Shallow and
// Deep sleep levels, matching the original's PLL_RATIO constant used to
// convert a slot's PLL-cycle duration into sleep-timer ticks.
const pllRatio = 4

// ccaThresholdWatchdogCount is the number of consecutive bracketed-CCA
// corrections tolerated before TDMASync gives up on fine correction and
// falls back to a coarse resync, matching the original's
// CCA_THRESHOLD_WATCHDOG_COUNT.
const ccaThresholdWatchdogCount = 3000

// unsyncOffsetPLLCycles is applied by SlaveFind while hunting for a peer
// that has not yet been heard at all.
const unsyncOffsetPLLCycles = 32

type frameType int

const (
	frameTX frameType = iota
	frameRX
)

/*
TDMASync is the slave synchronization loop of spec.md §4.6, computing
sleep/timeout/power-up budgets for the next timeslot and nudging a Node's
wake time toward the Coordinator's based on observed RX wait time. This is
a direct, field-for-field port of the original link_tdma_sync module.
*/
type TDMASync struct {
	sleepLevel SleepLevel

	timeoutPLLCycles         PLLCycles
	setupTimePLLCycles       PLLCycles
	baseTargetRxWaitedPLL    PLLCycles
	sleepOffsetPLLCycles     PLLCycles
	frameLostMaxCount        int

	previousFrameType frameType

	sleepCyclesValue PLLCycles
	timeoutValue     PLLCycles
	pwrUpValue       PLLCycles

	syncSlaveOffset     int32
	frameLostCount      int
	slaveState          SlaveSyncState
	ccaUnsyncWatchdog   int
}

// NewTDMASync computes the fixed per-node sync budgets from the radio's
// timing parameters, per spec.md §4.6's init formula.
func NewTDMASync(sleepLevel SleepLevel, setupTime PLLCycles, frameLostMax int, syncwordBits, preambleBits int, pllStartupXtal PLLCycles) *TDMASync {
	s := &TDMASync{
		sleepLevel:            sleepLevel,
		timeoutPLLCycles:      2*setupTime + PLLCycles(preambleBits) + PLLCycles(syncwordBits),
		setupTimePLLCycles:    setupTime,
		baseTargetRxWaitedPLL: setupTime + PLLCycles(preambleBits) + PLLCycles(syncwordBits),
		frameLostMaxCount:     frameLostMax,
		slaveState:            StateSyncing,
	}

	switch sleepLevel {
	case SleepIdle:
		s.sleepOffsetPLLCycles = 1
	case SleepShallow:
		s.sleepOffsetPLLCycles = pllRatio
	case SleepDeep:
		s.sleepOffsetPLLCycles = pllRatio*(pllStartupXtal+2) + pllRatio
	}

	return s
}

// UpdateTx recomputes sleep/timeout/power-up for an upcoming TX slot of
// the given PLL-cycle duration.
func (s *TDMASync) UpdateTx(duration PLLCycles, cca *CCAState) {
	d := int64(duration) + int64(s.syncSlaveOffset)

	if s.previousFrameType == frameRX {
		d += int64(s.setupTimePLLCycles)
	}
	s.previousFrameType = frameTX

	s.update(d, cca)
	s.syncSlaveOffset = 0
}

// UpdateRx recomputes sleep/timeout/power-up for an upcoming RX slot,
// waking earlier than a TX slot by one setup-time when transitioning
// TX→RX.
func (s *TDMASync) UpdateRx(duration PLLCycles, cca *CCAState) {
	d := int64(duration) + int64(s.syncSlaveOffset)

	if s.previousFrameType == frameTX {
		d -= int64(s.setupTimePLLCycles)
	}
	s.previousFrameType = frameRX

	s.update(d, cca)
	s.syncSlaveOffset = 0
}

func (s *TDMASync) update(duration int64, cca *CCAState) {
	var timeout int64 = int64(s.timeoutPLLCycles)
	if cca != nil && cca.cfg.TryCount > 0 {
		timeout += int64(cca.cfg.TryCount) * int64(cca.cfg.RetryTime)
	}

	switch s.sleepLevel {
	case SleepShallow, SleepDeep:
		duration -= int64(s.sleepOffsetPLLCycles)
		if duration < 0 {
			duration = 0
		}
		s.sleepCyclesValue = PLLCycles(duration / pllRatio)
		s.pwrUpValue += PLLCycles(duration % pllRatio)
		if s.pwrUpValue > pllRatio {
			s.sleepCyclesValue++
			s.pwrUpValue %= pllRatio
		}
		s.timeoutValue = PLLCycles(timeout) + s.pwrUpValue
	default: // SleepIdle
		d := duration - int64(s.sleepOffsetPLLCycles)
		if d < 0 {
			d = 0
		}
		s.sleepCyclesValue = PLLCycles(d)
		s.pwrUpValue = 0
		s.timeoutValue = PLLCycles(timeout)
	}
}

// SleepCycles, Timeout, and PwrUp expose the budgets computed by the most
// recent UpdateTx/UpdateRx call, consumed by state_setup_primary_link
// (mac.go) to populate the outbound XLFrame's slot config.
func (s *TDMASync) SleepCycles() PLLCycles    { return s.sleepCyclesValue }
func (s *TDMASync) Timeout() PLLCycles        { return s.timeoutValue }
func (s *TDMASync) PwrUp() PLLCycles          { return s.pwrUpValue }
func (s *TDMASync) IsSlaveSynced() bool       { return s.slaveState == StateSynced }
func (s *TDMASync) SlaveState() SlaveSyncState { return s.slaveState }

// SlaveAdjust corrects drift from an observed frame outcome — the entry
// point a Node's MAC calls from state_sync (mac_states.go) once synced.
func (s *TDMASync) SlaveAdjust(outcome FrameOutcome, rxWaited PLLCycles, cca *CCAState) {
	if outcome == OutcomeReceived {
		s.slaveAdjustFrameRx(rxWaited, cca)
	} else {
		s.slaveAdjustFrameLost()
	}
}

// SlaveFind is used instead of SlaveAdjust while a Node is not synced
// (before its first lock, or after losing it): a miss applies a fixed
// coarse backward nudge rather than the bracketing correction SlaveAdjust
// would compute from a prior lock.
func (s *TDMASync) SlaveFind(outcome FrameOutcome, rxWaited PLLCycles, cca *CCAState) {
	if outcome == OutcomeReceived {
		s.slaveAdjustFrameRx(rxWaited, cca)
	} else {
		s.syncSlaveOffset = -unsyncOffsetPLLCycles
	}
}

func (s *TDMASync) slaveAdjustFrameRx(rxWaited PLLCycles, cca *CCAState) {
	targetRxWaited := s.baseTargetRxWaitedPLL

	waited := int64(rxWaited)
	if s.sleepLevel != SleepIdle {
		waited -= int64(s.pwrUpValue)
	}

	s.frameLostCount = 0

	ccaEnabled := cca != nil && cca.cfg.TryCount > 0
	if ccaEnabled {
		retry := int64(cca.cfg.RetryTime)
		half := retry / 2
		base := int64(s.baseTargetRxWaitedPLL)

		if waited > base+retry-half {
			s.ccaUnsyncWatchdog++
			for i := cca.cfg.TryCount; i >= 0; i-- {
				upper := base + retry*int64(i+1) - half
				lower := base + retry*int64(i) - half
				if waited < upper && waited > lower {
					targetRxWaited = PLLCycles(base + retry*int64(i))
					break
				}
			}
		}
	}

	if targetRxWaited == s.baseTargetRxWaitedPLL {
		s.slaveState = StateSynced
		s.ccaUnsyncWatchdog = 0
	}

	switch {
	case waited > int64(targetRxWaited):
		s.syncSlaveOffset = int32(waited - int64(targetRxWaited))
	case waited < int64(targetRxWaited):
		s.syncSlaveOffset = -int32(int64(targetRxWaited) - waited)
	default:
		s.syncSlaveOffset = 0
	}

	if s.ccaUnsyncWatchdog > ccaThresholdWatchdogCount || s.slaveState == StateSyncing {
		s.syncSlaveOffset = int32(waited - int64(s.baseTargetRxWaitedPLL))
	}
}

func (s *TDMASync) slaveAdjustFrameLost() {
	s.frameLostCount++
	s.syncSlaveOffset = 0
	if s.frameLostCount >= s.frameLostMaxCount {
		s.slaveState = StateSyncing
		s.frameLostCount = s.frameLostMaxCount
	}
}
