package gatt

// SendRequest is a per-connection registration placed on the stack's
// pending-notification queue. The send callback builds and transmits the
// payload when the stack opens a send window, so a notification always
// carries the state current at transmission time, never the state latched
// when the change was signalled.
type SendRequest struct {
	conn Conn
	send func(Conn)
}

// Conn returns the connection this request targets.
func (r *SendRequest) Conn() Conn { return r.conn }

// Ready is invoked by the stack when it can transmit to the connection.
func (r *SendRequest) Ready() { r.send(r.conn) }

// Stack is the boundary to the BLE host stack. Implementations dispatch
// everything on the owning service loop.
type Stack interface {
	// RequestToSend queues r until the next send window for its
	// connection. Queuing an already-pending request is a no-op, which
	// is what coalesces bursts of change signals into one notification.
	RequestToSend(r *SendRequest)
	// CancelSend removes a pending request from the queue, if present.
	// Must happen before a disconnecting handle's slot is reused, or the
	// stack would walk a freed registration.
	CancelSend(r *SendRequest)
	// Notify transmits an attribute value to the peer.
	Notify(conn Conn, attr uint16, value []byte) error
}

// -----------------------------------------------------------------------------
// In-process stack
// -----------------------------------------------------------------------------

// Notification is one transmitted value, recorded by QueueStack.
type Notification struct {
	Conn  Conn
	Attr  uint16
	Value []byte
}

// QueueStack is an in-process Stack for the host simulator and tests.
// Drain plays the send window: it empties the pending queue and invokes
// each request's callback.
type QueueStack struct {
	pending []*SendRequest

	// Outbox records transmitted notifications, newest last.
	Outbox []Notification
	// OnNotify, when set, observes each transmission.
	OnNotify func(Notification)
}

func NewQueueStack() *QueueStack { return &QueueStack{} }

func (q *QueueStack) RequestToSend(r *SendRequest) {
	for _, p := range q.pending {
		if p == r {
			return // already queued; coalesce
		}
	}
	q.pending = append(q.pending, r)
}

func (q *QueueStack) CancelSend(r *SendRequest) {
	for i, p := range q.pending {
		if p == r {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *QueueStack) Notify(conn Conn, attr uint16, value []byte) error {
	n := Notification{Conn: conn, Attr: attr, Value: append([]byte(nil), value...)}
	q.Outbox = append(q.Outbox, n)
	if q.OnNotify != nil {
		q.OnNotify(n)
	}
	return nil
}

// Pending reports the number of queued send requests.
func (q *QueueStack) Pending() int { return len(q.pending) }

// Drain opens a send window: every queued request fires once, in order.
// Requests queued during the callbacks wait for the next window.
func (q *QueueStack) Drain() {
	batch := q.pending
	q.pending = nil
	for _, r := range batch {
		r.Ready()
	}
}
