package gatt

import "errors"

// Handler is one GATT service's slice of the attribute table.
type Handler interface {
	AttrRead(conn Conn, attr, offset uint16, buf []byte) (int, error)
	AttrWrite(conn Conn, attr, offset uint16, value []byte) error
	Disconnected(conn Conn)
}

// Dispatcher routes attribute access across services: each handler gets a
// chance until one claims the handle.
type Dispatcher struct {
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

func (d *Dispatcher) Read(conn Conn, attr, offset uint16, buf []byte) (int, error) {
	for _, h := range d.handlers {
		n, err := h.AttrRead(conn, attr, offset, buf)
		if errors.Is(err, ErrNotHandled) {
			continue
		}
		return n, err
	}
	return 0, ErrAttributeNotFound
}

func (d *Dispatcher) Write(conn Conn, attr, offset uint16, value []byte) error {
	for _, h := range d.handlers {
		err := h.AttrWrite(conn, attr, offset, value)
		if errors.Is(err, ErrNotHandled) {
			continue
		}
		return err
	}
	return ErrAttributeNotFound
}

// Disconnected fans the disconnect out to every service so per-connection
// state (subscriptions, pending sends) is released everywhere.
func (d *Dispatcher) Disconnected(conn Conn) {
	for _, h := range d.handlers {
		h.Disconnected(conn)
	}
}
