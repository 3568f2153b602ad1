// AngelaMos | 2026
// conn.go

package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a live duplex connection to one client device. The concrete
// implementation wraps a gorilla websocket; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// wsConn serializes writes: gorilla connections allow only one concurrent
// writer, and fan-out for a user can run from several goroutines.
type wsConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{conn: conn, writeTimeout: writeTimeout}
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		//nolint:errcheck // deadline errors surface on the write itself
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
