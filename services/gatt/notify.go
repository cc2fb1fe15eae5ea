package gatt

// MaxConnections matches the BLE stack's concurrent-connection limit; the
// subscription table for a notified attribute never outgrows it.
const MaxConnections = 4

type SubscribeResult uint8

const (
	SubscribeOK SubscribeResult = iota
	SubscribeAlready
	SubscribeNoSlot
)

// Notifier is the per-attribute notification multiplexer: a fixed-capacity
// set of subscribed connection handles plus the machinery to coalesce
// outbound notifications through the stack's pending queue. One instance
// serves one notified attribute.
type Notifier struct {
	stack Stack
	slots [MaxConnections]SendRequest
}

// NewNotifier builds a notifier whose send callback computes and transmits
// the attribute payload at send time.
func NewNotifier(stack Stack, send func(Conn)) *Notifier {
	n := &Notifier{stack: stack}
	for i := range n.slots {
		n.slots[i] = SendRequest{conn: ConnInvalid, send: send}
	}
	return n
}

// Subscribed reports whether conn holds a slot.
func (n *Notifier) Subscribed(conn Conn) bool {
	for i := range n.slots {
		if n.slots[i].conn == conn {
			return true
		}
	}
	return false
}

// Subscribe claims a slot for conn. Idempotent: re-subscribing is
// reported, not an error.
func (n *Notifier) Subscribe(conn Conn) SubscribeResult {
	if n.Subscribed(conn) {
		return SubscribeAlready
	}
	for i := range n.slots {
		if n.slots[i].conn == ConnInvalid {
			n.slots[i].conn = conn
			return SubscribeOK
		}
	}
	return SubscribeNoSlot
}

// Unsubscribe releases conn's slot. Any pending notification is cancelled
// on the stack before the slot is freed, so a reused slot can never fire
// with the old connection's registration.
func (n *Notifier) Unsubscribe(conn Conn) bool {
	for i := range n.slots {
		if n.slots[i].conn != conn {
			continue
		}
		n.stack.CancelSend(&n.slots[i])
		n.slots[i].conn = ConnInvalid
		return true
	}
	return false
}

// Disconnected releases any subscription state held for conn.
func (n *Notifier) Disconnected(conn Conn) { n.Unsubscribe(conn) }

// Notify requests a send window for every subscribed connection. Repeated
// calls before the stack drains coalesce into one notification each.
func (n *Notifier) Notify() {
	for i := range n.slots {
		if n.slots[i].conn != ConnInvalid {
			n.stack.RequestToSend(&n.slots[i])
		}
	}
}

// ClientConfiguration returns the CCCD value for conn.
func (n *Notifier) ClientConfiguration(conn Conn) uint16 {
	if n.Subscribed(conn) {
		return NotifyFlag
	}
	return 0
}

// WriteClientConfiguration applies a CCCD write; the value must be exactly
// two bytes. A full table still reports success to the peer — the write is
// valid, the peer just won't hear from us until a slot frees up.
func (n *Notifier) WriteClientConfiguration(conn Conn, value []byte) error {
	v, err := exactU16(value)
	if err != nil {
		return err
	}
	if v&NotifyFlag != 0 {
		n.Subscribe(conn)
	} else {
		n.Unsubscribe(conn)
	}
	return nil
}
