package wps

/*
Callback dispatch implements the callback-context queue of spec.md §5/§6.2,
grounded on dlq.go's role of queuing events to drive downstream processing
and callbacks.go's user-callback plumbing in the teacher: the IRQ context
never calls a user closure directly, it tags an event and pushes it onto a
small SPSC queue that a lower-priority context later drains.
*/

// CallbackKind tags the callback queued for a connection (spec.md §9
// design note: "tagged enums... with a per-connection closure").
type CallbackKind int

const (
	CallbackTxSuccess CallbackKind = iota
	CallbackTxFail
	CallbackTxDropped
	CallbackRxSuccess
	CallbackEvent
)

// CallbackSet holds the user closures a Connection was configured with via
// connection_set_{tx_success|tx_fail|tx_dropped|rx_success}_callback and
// its event callback for runtime events (spec.md §7).
type CallbackSet struct {
	TxSuccess func(conn *Connection)
	TxFail    func(conn *Connection)
	TxDropped func(conn *Connection)
	RxSuccess func(conn *Connection)
	Event     func(conn *Connection, kind EventKind)
}

type queuedCallback struct {
	conn  *Connection
	kind  CallbackKind
	event EventKind
}

// callbackQueue is the bounded SPSC ring the IRQ context publishes to and
// the callback context drains (spec.md §5: "the callback context never
// races with the IRQ context on shared state except through the queue").
type callbackQueue struct {
	items []queuedCallback
	cap   int
	head  int
	tail  int
	count int
}

func newCallbackQueue(capacity int) *callbackQueue {
	return &callbackQueue{items: make([]queuedCallback, capacity), cap: capacity}
}

func (q *callbackQueue) push(cb queuedCallback) bool {
	if q.count == q.cap {
		return false
	}
	q.items[q.tail] = cb
	q.tail = (q.tail + 1) % q.cap
	q.count++
	return true
}

func (q *callbackQueue) pop() (queuedCallback, bool) {
	if q.count == 0 {
		return queuedCallback{}, false
	}
	cb := q.items[q.head]
	q.head = (q.head + 1) % q.cap
	q.count--
	return cb, true
}

// dispatch invokes the user closure for one queued callback. Called from
// ConnectionCallbacksProcessingHandler, never from the IRQ context.
func dispatch(cb queuedCallback) {
	cs := cb.conn.Callbacks
	switch cb.kind {
	case CallbackTxSuccess:
		if cs.TxSuccess != nil {
			cs.TxSuccess(cb.conn)
		}
	case CallbackTxFail:
		if cs.TxFail != nil {
			cs.TxFail(cb.conn)
		}
	case CallbackTxDropped:
		if cs.TxDropped != nil {
			cs.TxDropped(cb.conn)
		}
	case CallbackRxSuccess:
		if cs.RxSuccess != nil {
			cs.RxSuccess(cb.conn)
		}
	case CallbackEvent:
		if cs.Event != nil {
			cs.Event(cb.conn, cb.event)
		}
	}
}
