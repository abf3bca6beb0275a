package irc

import (
	"context"

	"github.com/coder/websocket"
)

type wsConn struct {
	conn *websocket.Conn
}

// Dial opens a WebSocket chat connection.
func Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) Read(ctx context.Context) (string, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *wsConn) Write(ctx context.Context, data string) error {
	return w.conn.Write(ctx, websocket.MessageText, []byte(data))
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
