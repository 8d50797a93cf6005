package wps

import "time"

/*
RunSoftwareLoop drives this Node's MAC from a software ticker instead of a
real radio IRQ line, for host binaries (cmd/wps-node, cmd/wps-coord,
cmd/wps-bench) that have no hardware interrupt to wire RadioIRQHandler to.
Each tick fires state_scheduler/state_setup_link, then synchronously
raises the completion signal for whatever this slot armed, the same
sequence a real IRQ source would produce but paced by tick instead of by
hardware. Grounded on the teacher's direwolf.go main loop, which drives
its own per-channel receive threads from a blocking read instead of a
hardware IRQ.
*/
func (n *Node) RunSoftwareLoop(stop <-chan struct{}, tick <-chan time.Time) {
	for {
		select {
		case <-stop:
			return
		case <-tick:
			n.RadioIRQHandler(0, SigSchedule)
			n.driveSlotCompletion()
			n.ConnectionCallbacksProcessingHandler()
		}
	}
}

// driveSlotCompletion raises the TX/RX completion signal for whatever
// stateSetupLink armed this slot. Both may fire (main link one way,
// auto-reply the other), mirroring two radio-IRQ events landing in the
// same slot on real hardware. For the RX side, it drains the armed
// transfer's result itself so it can raise the signal that actually
// matches what happened — SigRxFrame on a real reception, SigRxFrameMiss
// on a timeout/loss — instead of always reporting success (spec.md
// §4.7's RxFrame/RxFrameMiss table).
func (n *Node) driveSlotCompletion() {
	if n.mac.txFrame != nil {
		n.RadioIRQHandler(0, SigTx)
	}
	if n.mac.rxFrame != nil {
		res := <-n.mac.rxDone
		n.mac.rxResult = &res

		signal := SigRxFrameMiss
		if res.outcome == OutcomeReceived {
			signal = SigRxFrame
		}
		n.RadioIRQHandler(0, signal)
	}
}
