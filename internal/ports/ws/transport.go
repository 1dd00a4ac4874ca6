package ws

import (
	"context"
	"fmt"

	"golang.org/x/net/websocket"

	"bisca/internal/app"
	"bisca/internal/ports/wire"
)

const maxDecodeErrorsPerConn = 8

// transport adapts one websocket connection to hub.Transport. Each text
// message carries exactly one JSON frame.
type transport struct {
	conn         *websocket.Conn
	decodeErrors int
}

func newTransport(conn *websocket.Conn) *transport {
	return &transport{conn: conn}
}

func (t *transport) Receive(_ context.Context) (app.Action, error) {
	var data []byte
	if err := websocket.Message.Receive(t.conn, &data); err != nil {
		return nil, err
	}
	action, err := wire.DecodeAction(data)
	if err != nil {
		t.decodeErrors++
		if t.decodeErrors >= maxDecodeErrorsPerConn {
			return nil, fmt.Errorf("closing after %d malformed frames, last: %v", t.decodeErrors, err)
		}
		return nil, err
	}
	t.decodeErrors = 0
	return action, nil
}

func (t *transport) Send(_ context.Context, ev app.Event) error {
	data, err := wire.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return websocket.Message.Send(t.conn, string(data))
}

func (t *transport) Close() error {
	return t.conn.Close()
}
