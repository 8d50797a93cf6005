package wps

import "sync/atomic"

// ConnectionStats are the runtime counters of spec.md §7/§8: written only
// by the IRQ context, read by the application context. 32-bit atomics are
// enough to make those cross-context reads well-defined without a lock.
type ConnectionStats struct {
	TxSuccess                atomic.Uint32
	TxFail                   atomic.Uint32
	TxDropped                atomic.Uint32
	RxReceived               atomic.Uint32
	CCAFail                  atomic.Uint32
	ProducerPacketsCorrupted atomic.Uint32
}

/*
Connection is the unidirectional byte pipe of spec.md §3: identity
(Source, Destination), the flags/ARQ/CCA settings fixed at
connection_init, and the runtime state (ARQ sequence bit, gain index, LQI,
queue) that evolves once the stack is running. The Connection and its XL
frames are allocated from the owning Pool during setup; the per-connection
state objects it points to are built on the heap. None is reallocated
after setup.
*/
type Connection struct {
	ID     int
	Config ConnectionConfig

	isSource bool // true if this node originates the connection's traffic

	queue      *xlQueue
	frames     []XLFrame
	headerSize int

	emptyFrame   *XLFrame // reserved per-connection auto-sync beacon slot
	overrunFrame *XLFrame // reserved per-connection RX-overrun scratch slot

	ARQ      *ARQState
	CCA      *CCAState
	Hopping  *ChannelHopping
	Gain     *GainLoop
	LQI      *LQI
	Fallback *FallbackTable
	RDO      *RDOState
	Header   *HeaderCodec

	pattern           []bool
	patternCount      int
	patternTotalCount int
	activeRatio       int

	Callbacks CallbackSet
	Stats     ConnectionStats
}

// IsSource reports whether this node originates the connection's traffic
// (i.e. this is a TX connection on this node).
func (c *Connection) IsSource() bool { return c.isSource }

// GetFreeSlot returns a writable XL frame at the producer side without
// publishing it (spec.md §4.2).
func (c *Connection) GetFreeSlot() (*XLFrame, bool) {
	slot, ok := c.queue.getFreeSlot()
	if ok {
		slot.Reset(c.headerSize)
	}
	return slot, ok
}

// Enqueue publishes a previously acquired slot.
func (c *Connection) Enqueue() error { return c.queue.enqueue() }

// Front returns the XL frame at the consumer side without dequeuing it.
func (c *Connection) Front() (*XLFrame, bool) { return c.queue.front() }

// Dequeue retires the XL frame at the consumer side.
func (c *Connection) Dequeue() error { return c.queue.dequeue() }

func (c *Connection) QueueLength() int    { return c.queue.length() }
func (c *Connection) QueueFreeSpace() int { return c.queue.freeSpace() }
func (c *Connection) QueueIsEmpty() bool  { return c.queue.isEmpty() }
func (c *Connection) QueueSize() int      { return c.queue.size() }

// Send copies buf into a free TX slot and publishes it, the application
// entry point of spec.md §6.2. Returns ErrQueueFull when the producer-side
// queue has no room, per spec.md §4.11 (the caller is expected to retry).
func (c *Connection) Send(buf []byte) error {
	if c.Config.FixedPayloadSize > 0 && len(buf) != c.Config.FixedPayloadSize {
		return ErrWrongTxSize
	}

	slot, ok := c.GetFreeSlot()
	if !ok {
		return ErrQueueFull
	}

	payload, ok := slot.Payload.growRight(len(buf))
	if !ok {
		return ErrQueueFull
	}
	copy(payload, buf)

	return c.Enqueue()
}

// growRight extends a window's End by n bytes within capacity and returns
// the newly exposed bytes, the producer-side counterpart to the header's
// PrependHeader used for payload growth.
func (w *Window) growRight(n int) ([]byte, bool) {
	if w.End+n > w.Capacity {
		return nil, false
	}
	start := w.End
	w.End += n
	return w.Memory[start:w.End], true
}

// Receive returns the payload of the oldest received frame without
// removing it from the queue, mirroring connection_receive /
// connection_receive_complete's two-step protocol (spec.md §6.2).
func (c *Connection) Receive() ([]byte, error) {
	slot, ok := c.Front()
	if !ok {
		return nil, ErrQueueEmpty
	}
	return slot.Payload.Bytes(), nil
}

// ReceiveComplete releases the frame most recently returned by Receive.
func (c *Connection) ReceiveComplete() error { return c.Dequeue() }

// SetThrottlingActiveRatio converts percent into a boolean duty-cycle
// pattern and stores it directly; used outside the connect/disconnect
// window (e.g. at setup) or by tests. The runtime, cross-context path is
// Node.RequestActiveRatio (node.go), which goes through the MAC's request
// queue instead of touching MAC-owned state from the application context.
func (c *Connection) SetThrottlingActiveRatio(percent int) {
	pattern, total := GenerateActivePattern(percent)
	c.pattern = pattern
	c.patternTotalCount = total
	c.patternCount = 0
	c.activeRatio = percent
}

// GetFallbackInfo reports the link margin for the connection's most
// recently sent payload size (spec.md §6.2).
func (c *Connection) GetFallbackInfo(lastPayloadSize int) (linkMargin int) {
	if c.Fallback == nil {
		return 0
	}
	return c.Fallback.LinkMargin(lastPayloadSize)
}
