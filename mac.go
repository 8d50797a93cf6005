package wps

import "github.com/nimbuslace/tdmawps/bsp"

/*
InputSignal is the MAC's dispatch key (spec.md §4.7/§9): the radio-IRQ
context calls Run with exactly one of these per hardware event, and the
design note in spec.md §9 resolves the original's function-pointer jump
tables as an explicit switch over this enum instead (Run), so no sentinel
"end" marker is needed. The compiler does not check that switch for
exhaustiveness; a signal with no case in Run is ignored.
*/
type InputSignal int

const (
	SigSchedule InputSignal = iota
	SigSetupLink
	SigRxFrame
	SigRxFrameMiss
	SigTxSentAck
	SigTxSentNack
	SigTxNotSent
	SigTx
)

// phyDriver is the fan-in MAC drives a slot through: a single PHYAdapter
// for a one-radio Node, or a MultiRadioArbiter (arbiter.go) fanning the
// same transfer out to two radios and arbitrating between them for a
// diversity Node. Both satisfy this interface with no adapter needed.
type phyDriver interface {
	Transmit(frame *XLFrame, cca *CCAState) FrameOutcome
	Receive(frame *XLFrame) (outcome FrameOutcome, rssiTenth, rnsiTenth int32)
}

/*
MAC drives one Node's per-timeslot state machine (spec.md §4.7), grounded
on the teacher's ax25_pad/dlq dispatch shape generalized to this protocol's
distinct jump table. It remembers the current timeslot's connections and
in-flight frame across the Schedule/SetupLink call and the later
TxSent/RxFrame completion call, since those arrive from the hardware as
two separate radio-IRQ events.
*/
type MAC struct {
	node  *Node
	phy   phyDriver
	timer bsp.Timer

	currentMain      *Connection
	currentAutoReply *Connection

	txFrame  *XLFrame
	rxFrame  *XLFrame
	mainIsTx bool

	txDone chan asyncResult
	rxDone chan asyncResult

	// rxResult is the already-drained completion of this slot's rxDone,
	// set by driveSlotCompletion (runloop.go) so it can pick the right
	// completion signal (SigRxFrame vs SigRxFrameMiss) before calling
	// Run; statePostRx consumes it instead of blocking on rxDone again.
	// Left nil on a real hardware-IRQ path, where statePostRx reads
	// rxDone itself.
	rxResult *asyncResult

	// rxCompleted, rxOutcome, rxRSSITenth, rxRNSITenth carry this slot's
	// actual receive result from statePostRx to the states that run
	// after it in the same Run call (state_link_quality, state_sync),
	// so they react to what the radio really reported instead of to
	// which signal happened to be raised (spec.md §4.7).
	rxCompleted bool
	rxOutcome   FrameOutcome
	rxRSSITenth int32
	rxRNSITenth int32

	syncingAddress Address
}

// asyncResult is what a PHYAdapter transfer started from stateSetupLink
// eventually delivers to statePostTx/statePostRx, modeling the real
// hardware's split between "arm the transfer" (setup) and "transfer
// completed" (the later TxSent*/RxFrame* IRQ) without assuming a specific
// interrupt wiring.
type asyncResult struct {
	outcome             FrameOutcome
	rssiTenth, rnsiTenth int32
}

// NewMAC attaches a MAC to a Node's phyDriver — a lone PHYAdapter for a
// single radio, or a MultiRadioArbiter for a diversity Node — and the
// Timer used for ARQ deadline stamping.
func NewMAC(node *Node, phy phyDriver, timer bsp.Timer) *MAC {
	return &MAC{node: node, phy: phy, timer: timer, syncingAddress: node.CoordAddress}
}

// Run dispatches one input signal through the state tables of spec.md
// §4.7's table, consuming the throttle-request queue first if
// state_scheduler is about to run (spec.md §4.8: "the MAC consumes the
// marker at a safe point in state_scheduler").
func (m *MAC) Run(signal InputSignal) {
	switch signal {
	case SigSchedule:
		m.stateScheduler()
		m.stateSetupLink()
	case SigRxFrame, SigRxFrameMiss:
		m.statePostRx(signal)
		m.stateLinkQuality(signal)
		m.stateSync(signal)
	case SigTxSentAck, SigTxSentNack, SigTxNotSent, SigTx:
		m.stateStopWaitArq(signal)
		m.statePostTx(signal)
	}
}

// stateScheduler advances the scheduler and channel hopping by the same
// increment, swaps in any pending throttle request, and records the new
// slot's connections (spec.md §4.7).
func (m *MAC) stateScheduler() {
	m.drainThrottleRequests()

	inc := m.node.scheduler.IncrementTimeSlot()
	if m.node.hopping != nil {
		m.node.hopping.IncrementSequence(inc)
	}
	for _, conn := range m.node.Connections {
		if conn.Hopping != nil {
			conn.Hopping.IncrementSequence(inc)
		}
	}

	ts := m.node.scheduler.CurrentTimeslot()
	m.currentMain = ts.ConnectionMain
	m.currentAutoReply = ts.ConnectionAutoReply
}

// drainThrottleRequests swaps in at most one pending active-ratio change
// per slot, matching spec.md §4.8's "no allocation... at a safe point".
func (m *MAC) drainThrottleRequests() {
	select {
	case req := <-m.node.throttleRequests:
		req.target.pattern = req.pattern
		req.target.patternTotalCount = req.total
		req.target.patternCount = 0
	default:
	}
}

// stateSetupLink decides TX vs RX for the main connection from
// isSource(), updates tdma_sync, and acquires/produces the XL frame for
// the slot, then repeats for the auto-reply connection if present
// (spec.md §4.7, state_setup_primary_link / state_setup_ack_link /
// state_setup_prime_link).
func (m *MAC) stateSetupLink() {
	m.txFrame = nil
	m.rxFrame = nil

	if m.currentMain == nil {
		return
	}

	ts := m.node.scheduler.CurrentTimeslot()
	m.mainIsTx = m.currentMain.IsSource()

	if m.node.sync != nil {
		if m.mainIsTx {
			m.node.sync.UpdateTx(ts.DurationPLLCycles, m.currentMain.CCA)
		} else {
			m.node.sync.UpdateRx(ts.DurationPLLCycles, m.currentMain.CCA)
		}
	}

	if m.node.Role == RoleNode && !m.node.sync.IsSlaveSynced() && !m.mainIsTx &&
		m.currentMain.Config.Source == m.syncingAddress {
		if fastSyncConn := m.currentMain; fastSyncConn.Gain != nil {
			fastSyncConn.Gain.Reset()
		}
	}

	if m.mainIsTx {
		m.txFrame = m.prepareTxFrame(m.currentMain, false)
	} else {
		m.rxFrame = m.prepareRxFrame(m.currentMain)
	}

	if m.currentAutoReply != nil {
		if m.currentAutoReply.IsSource() {
			m.txFrame = m.prepareTxFrame(m.currentAutoReply, true)
		} else {
			m.rxFrame = m.prepareRxFrame(m.currentAutoReply)
		}
	}

	if m.phy == nil {
		return
	}

	if m.txFrame != nil {
		frame := m.txFrame
		m.txDone = make(chan asyncResult, 1)
		go func() {
			m.txDone <- asyncResult{outcome: m.phy.Transmit(frame, frame.connOwner.CCA)}
		}()
	}
	if m.rxFrame != nil {
		frame := m.rxFrame
		m.rxDone = make(chan asyncResult, 1)
		go func() {
			outcome, rssi, rnsi := m.phy.Receive(frame)
			m.rxDone <- asyncResult{outcome, rssi, rnsi}
		}()
	}
}

// prepareTxFrame dequeues (or synthesizes an auto-sync beacon for) conn's
// next outbound frame and populates every per-slot field spec.md §4.7
// lists: channel, CCA params, sleep level, gain index, fixed-payload flag,
// modulation/FEC, addresses, expect-ack, rx_timeout, sleep_cycles,
// power_up_delay.
func (m *MAC) prepareTxFrame(conn *Connection, prime bool) *XLFrame {
	frame, ok := conn.Front()
	if !ok {
		if !conn.Config.Flags.AutoSync {
			return nil
		}
		frame = conn.emptyFrame
		frame.Reset(conn.headerSize)
	}
	frame.connOwner = conn
	frame.consumedFromQueue = ok
	if ok && frame.TimeStampQtrMS == 0 && m.timer != nil {
		frame.TimeStampQtrMS = QuarterMS(m.timer.GetTickQuarterMS())
	}

	payloadSize := frame.Payload.Len()
	profile := FallbackProfile{}
	if conn.Fallback != nil {
		profile = conn.Fallback.Select(payloadSize)
	}

	hopIdx := 0
	if conn.Hopping != nil {
		hopIdx = conn.Hopping.SeqIndex()
	}
	channel := ChannelID(hopIdx)
	if conn.Hopping != nil {
		channel = conn.Hopping.Channel()
	}
	channel = ChannelID(int(channel) + profile.ChannelDelta)

	var rdo uint16
	if conn.RDO != nil {
		rdo = conn.RDO.Next()
	}

	frame.Channel = channel
	frame.CCA = conn.Config.CCA
	frame.GainIndex = profile.PowerDelta
	frame.Modulation = conn.Config.Modulation
	frame.FECLevel = conn.Config.FECLevel
	frame.ExpectAck = conn.Config.Flags.Ack && !prime
	frame.FixedPayload = conn.Config.Flags.FixedPayloadSize
	frame.SleepLevel = m.node.SleepLevel
	frame.Source = conn.Config.Source
	frame.Destination = conn.Config.Destination
	if m.node.sync != nil {
		frame.RxTimeout = m.node.sync.Timeout()
		frame.SleepCycles = m.node.sync.SleepCycles()
		frame.PowerUpDelay = m.node.sync.PwrUp()
	}

	if conn.Header != nil {
		var saw bool
		if conn.ARQ != nil {
			saw = conn.ARQ.SeqNum()
		}
		var nextID uint8
		if m.node.scheduler != nil {
			nextID = uint8(m.node.scheduler.CurrentIndex())
		}
		if prime {
			conn.Header.EncodeAutoReply(frame, rdo, 0, [4]byte{})
		} else {
			conn.Header.EncodeMain(frame, nextID, saw, uint8(hopIdx), rdo, 0, [4]byte{})
		}
	}

	return frame
}

// prepareRxFrame acquires a free slot on conn's RX queue (or its
// overrun scratch frame if the queue is full) and populates the fields
// needed to arm a receive.
func (m *MAC) prepareRxFrame(conn *Connection) *XLFrame {
	frame, ok := conn.GetFreeSlot()
	if !ok {
		frame = conn.overrunFrame
		frame.Reset(conn.headerSize)
	}
	frame.connOwner = conn
	frame.consumedFromQueue = ok

	hopIdx := 0
	if conn.Hopping != nil {
		hopIdx = conn.Hopping.SeqIndex()
		frame.Channel = conn.Hopping.Channel()
	}
	_ = hopIdx

	frame.CCA = conn.Config.CCA
	frame.Source = conn.Config.Source
	frame.Destination = conn.Config.Destination
	if m.node.sync != nil {
		frame.RxTimeout = m.node.sync.Timeout()
		frame.SleepCycles = m.node.sync.SleepCycles()
		frame.PowerUpDelay = m.node.sync.PwrUp()
	}

	return frame
}
