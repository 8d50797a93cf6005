package wps

import "sync/atomic"

// Window is a growing/shrinking region at the front (header) or a
// shrinking/growing region at the back (payload) of an XLFrame's backing
// buffer. Begin/End are offsets into Memory; Capacity bounds End.
//
// Invariant (spec.md §3, §8): for the header/payload pair of one frame,
// header.End == payload.Begin at all times.
type Window struct {
	Memory   []byte
	Begin    int
	End      int
	Capacity int
}

// Len returns the number of live bytes currently in the window.
func (w *Window) Len() int { return w.End - w.Begin }

// Bytes returns the live bytes of the window.
func (w *Window) Bytes() []byte { return w.Memory[w.Begin:w.End] }

// PrependHeader grows the header window leftward by n bytes and returns
// those bytes for the caller to fill, matching the MAC's outbound header
// encode direction (header.go).
func (w *Window) PrependHeader(n int) ([]byte, bool) {
	if w.Begin-n < 0 {
		return nil, false
	}
	w.Begin -= n
	return w.Memory[w.Begin : w.Begin+n], true
}

// ConsumeHeader shrinks the header window rightward by n bytes, the
// inbound header decode direction.
func (w *Window) ConsumeHeader(n int) ([]byte, bool) {
	if w.Begin+n > w.End {
		return nil, false
	}
	b := w.Memory[w.Begin : w.Begin+n]
	w.Begin += n
	return b, true
}

// XLFrame is the unit passed between the MAC and the application across a
// Connection's cross-layer queue (spec.md §3, "Cross-layer (XL) frame").
type XLFrame struct {
	Header  Window
	Payload Window

	TimeStampQtrMS QuarterMS
	RetryCount     int
	Outcome        FrameOutcome

	// Per-slot config, populated by state_setup_primary_link /
	// state_setup_prime_link (mac.go) immediately before the slot fires.
	Channel       ChannelID
	CCA           CCAConfig
	GainIndex     int
	Modulation    int
	FECLevel      int
	ExpectAck     bool
	FixedPayload  bool
	SleepLevel    SleepLevel
	Source        Address
	Destination   Address
	RxTimeout     PLLCycles
	SleepCycles   PLLCycles
	PowerUpDelay  PLLCycles

	// connOwner, consumedFromQueue, rssiTenth, and rnsiTenth are scratch
	// fields the MAC (mac.go, mac_states.go) uses to carry per-slot
	// bookkeeping from state_setup_*_link through to state_post_rx /
	// state_post_tx / state_link_quality within the same timeslot; they
	// are not part of the wire frame and are never read by the
	// application.
	connOwner         *Connection
	consumedFromQueue bool
	rssiTenth         int32
	rnsiTenth         int32
}

// Reset restores a frame's windows to the empty, ready-to-fill state
// expected when it is pulled from the free list, with header pre-aligned
// the way the factory lays out TX frames (spec.md §4.1).
func (f *XLFrame) Reset(headerSize int) {
	f.Header.Begin = headerSize
	f.Header.End = headerSize
	f.Payload.Begin = headerSize
	f.Payload.End = headerSize
	f.RetryCount = 0
	f.Outcome = OutcomeWait
}

// xlQueue is the bounded SPSC FIFO of spec.md §4.2. It hands out frame
// storage from a preallocated backing array; "enqueueing" never copies a
// frame, it only publishes the slot the producer already wrote into.
//
// head/tail are monotonically increasing counters (not wrapped themselves)
// so that full vs. empty is unambiguous; indices into frames are taken mod
// capacity. atomic loads/stores give the release/acquire pairing the single
// producer / single consumer handoff needs, matching spec.md §4.2 and the
// teacher's single-writer/single-reader transmit and receive queues
// (tq.go, dlq.go) without the teacher's mutex+cond, since exactly one
// goroutine ever produces and one ever consumes.
type xlQueue struct {
	frames []XLFrame
	cap    uint32
	head   atomic.Uint32 // consumer-owned
	tail   atomic.Uint32 // producer-owned
}

func newXLQueue(frames []XLFrame) *xlQueue {
	return &xlQueue{frames: frames, cap: uint32(len(frames))}
}

func (q *xlQueue) size() int { return int(q.cap) }

func (q *xlQueue) length() int {
	return int(q.tail.Load() - q.head.Load())
}

func (q *xlQueue) freeSpace() int {
	return int(q.cap) - q.length()
}

func (q *xlQueue) isEmpty() bool {
	return q.length() == 0
}

func (q *xlQueue) isFull() bool {
	return q.length() >= int(q.cap)
}

// getFreeSlot returns a writable slot at the tail without publishing it.
// The producer fills the slot then calls enqueue to publish it.
func (q *xlQueue) getFreeSlot() (*XLFrame, bool) {
	if q.isFull() {
		return nil, false
	}
	idx := q.tail.Load() % q.cap
	return &q.frames[idx], true
}

// enqueue publishes the slot previously returned by getFreeSlot.
func (q *xlQueue) enqueue() error {
	if q.isFull() {
		return ErrQueueFull
	}
	q.tail.Add(1)
	return nil
}

// front returns the slot at the head without consuming it.
func (q *xlQueue) front() (*XLFrame, bool) {
	if q.isEmpty() {
		return nil, false
	}
	idx := q.head.Load() % q.cap
	return &q.frames[idx], true
}

// dequeue retires the slot at the head.
func (q *xlQueue) dequeue() error {
	if q.isEmpty() {
		return ErrQueueEmpty
	}
	q.head.Add(1)
	return nil
}
