package wps

/*
This file holds the completion-side states of spec.md §4.7: the ones
keyed on an outcome arriving from the radio rather than on the start of a
slot. state_post_rx/state_post_tx classify the PHYAdapter's result and
drive callbacks; state_sync feeds tdma_sync; state_link_quality updates
gain/LQI; state_stop_wait_arq applies the one-bit ARQ protocol before
state_post_tx runs.
*/

// statePostRx waits for the slot's receive to complete (if one was armed),
// parses the header on success, and routes the payload to the right
// connection's RX queue or its overrun scratch slot (spec.md §4.7,
// §4.11).
func (m *MAC) statePostRx(signal InputSignal) {
	m.rxCompleted = false
	if m.rxFrame == nil {
		return
	}

	var res asyncResult
	switch {
	case m.rxResult != nil:
		res = *m.rxResult
		m.rxResult = nil
	case m.rxDone != nil:
		res = <-m.rxDone
	default:
		return
	}

	frame := m.rxFrame
	frame.Outcome = res.outcome
	frame.rssiTenth = res.rssiTenth
	frame.rnsiTenth = res.rnsiTenth
	m.rxFrame = nil
	m.rxDone = nil

	m.rxCompleted = true
	m.rxOutcome = frame.Outcome
	m.rxRSSITenth = frame.rssiTenth
	m.rxRNSITenth = frame.rnsiTenth

	conn := frame.connOwner
	if conn == nil {
		return
	}

	if frame.Outcome != OutcomeReceived {
		return
	}

	isMainSlot := conn == m.currentMain
	if conn.Header != nil {
		var decoded DecodedHeader
		var ok bool
		if isMainSlot {
			decoded, ok = conn.Header.DecodeMain(frame)
		} else {
			decoded, ok = conn.Header.DecodeAutoReply(frame)
		}
		if !ok {
			conn.Stats.ProducerPacketsCorrupted.Add(1)
			m.queueCallback(conn, CallbackEvent, EventProducerPacketCorrupted)
			return
		}

		if isMainSlot && m.node.scheduler != nil {
			expected := uint8(m.node.scheduler.CurrentIndex() % 128)
			if decoded.NextTimeslotID != expected {
				m.node.scheduler.SetMismatch()
				return
			}
			if conn.Hopping != nil {
				conn.Hopping.SetSeqIndex(int(decoded.HopIndex))
			}
		}
		if conn.ARQ != nil {
			conn.ARQ.UpdateRxSeqNum(decoded.SAW)
		}
		if decoded.IsBeacon {
			return
		}
		if conn.ARQ != nil && conn.ARQ.IsRxFrameDuplicate() {
			return
		}
	}

	if !frame.consumedFromQueue {
		m.queueCallback(conn, CallbackEvent, EventRxOverrun)
		return
	}

	if err := conn.Enqueue(); err != nil {
		m.queueCallback(conn, CallbackEvent, EventRxOverrun)
		return
	}
	conn.Stats.RxReceived.Add(1)
	m.queueCallback(conn, CallbackRxSuccess, 0)
}

// statePostTx waits for the slot's transmit to complete (if one was
// armed), classifies the outcome, and drives the tx_success/tx_fail
// callback (spec.md §4.7, §4.11). On tx_success for the main connection,
// the ARQ sequence bit flips (state_stop_wait_arq already ran this Run
// call and may have dequeued the frame on a timeout).
func (m *MAC) statePostTx(signal InputSignal) {
	if m.txFrame == nil || m.txDone == nil {
		return
	}
	res := <-m.txDone
	frame := m.txFrame
	frame.Outcome = res.outcome
	m.txFrame = nil
	m.txDone = nil

	conn := frame.connOwner
	if conn == nil {
		return
	}

	if !frame.consumedFromQueue {
		// auto-sync beacon: no application-visible callback either way.
		return
	}

	switch frame.Outcome {
	case OutcomeSentAck:
		if conn == m.currentMain && conn.ARQ != nil && conn.ARQ.Enabled {
			conn.ARQ.IncSeqNum()
		}
		_ = conn.Dequeue()
		conn.Stats.TxSuccess.Add(1)
		m.queueCallback(conn, CallbackTxSuccess, 0)
	case OutcomeSentAckLost, OutcomeLost, OutcomeRejected:
		if conn.Config.Flags.ARQ {
			// left enqueued; state_stop_wait_arq governs retry/drop.
			conn.Stats.TxFail.Add(1)
			return
		}
		_ = conn.Dequeue()
		conn.Stats.TxFail.Add(1)
		m.queueCallback(conn, CallbackTxFail, 0)
	case OutcomeWait:
		conn.Stats.CCAFail.Add(1)
	}
}

// stateSync feeds the observed outcome into tdma_sync, but only while
// this Node is not the Coordinator, the slot is not the auto-reply
// (prime) RX, and either the node hasn't yet locked on or the slot's main
// connection is the configured syncing source (spec.md §4.7). The
// outcome itself comes from state_post_rx's actual result for this slot,
// not from which completion signal happened to fire, so a real timeout
// is reported as a real loss instead of always reading as received.
func (m *MAC) stateSync(signal InputSignal) {
	if m.node.Role != RoleNode || m.node.sync == nil || m.currentMain == nil || !m.rxCompleted || m.mainIsTx {
		return
	}
	if m.node.sync.IsSlaveSynced() && m.currentMain.Config.Source != m.syncingAddress {
		return
	}

	rxWaited := m.node.sync.Timeout()

	if m.node.sync.IsSlaveSynced() {
		m.node.sync.SlaveAdjust(m.rxOutcome, rxWaited, m.currentMain.CCA)
	} else {
		m.node.sync.SlaveFind(m.rxOutcome, rxWaited, m.currentMain.CCA)
	}
}

// stateLinkQuality updates the current main connection's gain loop and
// LQI table from the observed RSSI/RNSI and outcome (spec.md §4.7, C2/C3).
// It runs after state_post_rx in the same Run call so it sees the slot's
// real radio-reported levels and outcome instead of a zeroed placeholder.
func (m *MAC) stateLinkQuality(signal InputSignal) {
	conn := m.currentMain
	if conn == nil || conn.LQI == nil || !m.rxCompleted {
		return
	}

	var ch ChannelID
	if conn.Hopping != nil {
		ch = conn.Hopping.Channel()
	}

	conn.LQI.Update(ch, m.rxOutcome, !conn.IsSource(), m.rxRSSITenth, m.rxRNSITenth)
	if conn.Gain != nil {
		conn.Gain.Update(ch, int(m.rxRSSITenth))
	}
}

// stateStopWaitArq applies retry/timeout bookkeeping to the connection
// that just attempted a transmit, dequeuing and emitting tx_dropped once
// the ARQ deadline is reached (spec.md §4.3, §4.11). Runs before
// state_post_tx so a timed-out frame is already gone from the queue by
// the time state_post_tx would otherwise classify it tx_fail.
func (m *MAC) stateStopWaitArq(signal InputSignal) {
	conn := m.currentMain
	if conn == nil || m.txFrame == nil || conn.ARQ == nil || !conn.ARQ.Enabled {
		return
	}
	frame := m.txFrame
	if !frame.consumedFromQueue {
		return
	}

	if signal == SigTxSentAck {
		return
	}

	var now QuarterMS
	if m.timer != nil {
		now = QuarterMS(m.timer.GetTickQuarterMS())
	}

	frame.RetryCount++
	if conn.ARQ.IsFrameTimeout(frame.TimeStampQtrMS, frame.RetryCount, now) {
		_ = conn.Dequeue()
		conn.Stats.TxDropped.Add(1)
		m.queueCallback(conn, CallbackTxDropped, 0)
		m.txFrame = nil
		m.txDone = nil
	}
}

// queueCallback pushes a callback for the callback-context softirq to
// drain (spec.md §5/§6.2), dropping it rather than blocking the IRQ
// context if the queue is momentarily full.
func (m *MAC) queueCallback(conn *Connection, kind CallbackKind, event EventKind) {
	if m.node.callbacks == nil {
		return
	}
	m.node.callbacks.push(queuedCallback{conn: conn, kind: kind, event: event})
}
