package eventsub

import (
	"context"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

type wsConn struct {
	conn *websocket.Conn
}

// Dial opens a WebSocket EventSub connection.
func Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) Read(ctx context.Context) (*Envelope, error) {
	var env Envelope
	if err := wsjson.Read(ctx, w.conn, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (w *wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.conn.Close(code, reason)
}
