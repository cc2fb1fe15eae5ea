package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"filterfan-go/bus"
	"filterfan-go/x/timex"
)

// Service mirrors bus traffic to a serial sink, one line per message. It is
// a debugging aid; dropped writes are ignored rather than retried so a slow
// sink can never stall the bus.
type Service struct {
	conn *bus.Connection
	sink io.Writer
}

func New(conn *bus.Connection, sink io.Writer) *Service {
	return &Service{conn: conn, sink: sink}
}

func (s *Service) Run(ctx context.Context) {
	sub := s.conn.Subscribe(bus.T(bus.WildcardAll))
	defer s.conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.writeLine(msg)
		}
	}
}

func (s *Service) writeLine(msg *bus.Message) {
	var b strings.Builder
	b.Grow(64)
	b.WriteString(strconv.FormatInt(timex.NowMs(), 10))
	b.WriteByte(' ')
	b.WriteString(topicString(msg.Topic))
	b.WriteByte(' ')
	b.WriteString(renderPayload(msg.Payload))
	if msg.Retained {
		b.WriteString(" [retained]")
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(s.sink, b.String())
}

func topicString(t bus.Topic) string {
	var b strings.Builder
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			b.WriteByte('/')
		}
		switch tok := t.At(i).(type) {
		case string:
			b.WriteString(tok)
		default:
			fmt.Fprintf(&b, "%v", tok)
		}
	}
	return b.String()
}

func renderPayload(p any) string {
	switch v := p.(type) {
	case nil:
		return "-"
	case []byte:
		return string(v)
	case string:
		return v
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(raw)
}
