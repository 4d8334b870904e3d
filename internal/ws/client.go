package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// client wraps one websocket connection for the hub. gorilla/websocket
// allows a single concurrent writer, so all sends funnel through wmu; the
// read side stays exclusive to the connection's own receive loop.
type client struct {
	id   string
	conn *websocket.Conn

	wmu sync.Mutex

	closeOnce sync.Once
}

func (c *client) ID() string { return c.id }

func (c *client) Send(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}
