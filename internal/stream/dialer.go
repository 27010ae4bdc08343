package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	dialTimeout  = 10 * time.Second
	maxFrameSize = 1 << 20
)

// Conn is one established backend connection.
type Conn interface {
	// Read blocks until the next text frame arrives, the connection fails, or
	// ctx is canceled.
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens backend connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials the backend over websocket.
type WebsocketDialer struct {
	Log zerolog.Logger
}

// Dial performs the websocket handshake.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	conn.SetReadLimit(maxFrameSize)
	return &wsConn{conn: conn, log: d.Log}, nil
}

type wsConn struct {
	conn *websocket.Conn
	log  zerolog.Logger
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		if msgType != websocket.MessageText {
			c.log.Debug().Int("type", int(msgType)).Msg("Ignoring non-text frame")
			continue
		}
		return data, nil
	}
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
