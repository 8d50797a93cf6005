package wps

// Radio is an opaque handle to one physical transceiver plus its
// calibration blob and PHY adapter (spec.md §3, L0/L1). A Radio is never
// shared across Nodes and lives exactly as long as its Node.
type Radio struct {
	ID     int
	Config RadioConfig
	PHY    *PHYAdapter
}

/*
Node owns one or two Radios, a fixed Schedule, and every Connection
carrying traffic between this Node and its peer (spec.md §3). Node is
immutable after Setup except for the runtime state explicitly called out
in spec.md §5 (sync/scheduler state owned by the IRQ context, stats
counters, gain/LQI tables).
*/
type Node struct {
	Role          Role
	PanID         uint16
	LocalAddress  Address
	CoordAddress  Address
	SleepLevel    SleepLevel

	Radios      []*Radio
	Connections []*Connection
	Schedule    *Schedule

	scheduler *Scheduler
	sync      *TDMASync
	hopping   *ChannelHopping
	arbiter   *MultiRadioArbiter
	mac       *MAC

	pool *Pool

	throttleRequests chan throttleRequest
	callbacks        *callbackQueue

	connected bool
}

// IsConnected reports whether Connect has succeeded and Disconnect has not
// yet been called.
func (n *Node) IsConnected() bool { return n.connected }

// RequestActiveRatio pushes a throttle change for conn through the MAC's
// request queue (spec.md §4.8): the application context never mutates
// conn's pattern fields directly while connected, it only ever enqueues a
// request that the MAC consumes at a safe point in state_scheduler.
func (n *Node) RequestActiveRatio(conn *Connection, percent int) error {
	pattern, total := GenerateActivePattern(percent)
	select {
	case n.throttleRequests <- throttleRequest{target: conn, pattern: pattern, total: total}:
		return nil
	default:
		return ErrRequestQueueFull
	}
}

// ConnectionCallbacksProcessingHandler drains the callback queue and
// invokes user closures; the caller wires this to the callback-context
// softirq (spec.md §6.2).
func (n *Node) ConnectionCallbacksProcessingHandler() {
	for {
		cb, ok := n.callbacks.pop()
		if !ok {
			return
		}
		dispatch(cb)
	}
}

// Connect parks the scheduler at its first slot and begins driving the MAC
// from radio events. Illegal to call twice without an intervening
// Disconnect (spec.md §7 ErrAlreadyConnected).
func (n *Node) Connect() error {
	if n.connected {
		return ErrAlreadyConnected
	}
	n.scheduler.SetFirstTimeSlot()
	n.connected = true
	return nil
}

// Disconnect marks the Node disconnected, after which RadioIRQHandler
// ignores every call. It does not park the radios, wait for a transfer
// already armed, or release an XL frame the MAC currently holds; those
// stay as they were when Disconnect ran.
func (n *Node) Disconnect() error {
	if !n.connected {
		return ErrAlreadyDisconnected
	}
	n.connected = false
	return nil
}

// RadioIRQHandler is the entry point the caller wires to the radio's IRQ
// (spec.md §6.2). radioIndex is accepted for interface symmetry with the
// two-radio case (radio1_irq_handler/radio2_irq_handler, spec.md §6.2);
// it is not otherwise consulted here because a diversity Node's MAC
// already fans each slot out to both radios internally through its
// MultiRadioArbiter (arbiter.go) rather than being driven by two
// independent per-radio call sequences.
func (n *Node) RadioIRQHandler(radioIndex int, signal InputSignal) {
	if !n.connected {
		return
	}
	n.mac.Run(signal)
}
