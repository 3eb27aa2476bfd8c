package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stagesync/protocol"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 2 * time.Minute
	pingInterval = 30 * time.Second
)

// connection wraps one websocket peer. Reads happen on a single goroutine;
// writes are serialised by writeMu because broadcasts arrive from the
// goroutines of other connections.
type connection struct {
	id  string
	ws  *websocket.Conn
	gw  *Gateway
	log *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn, gw *Gateway, log *zap.Logger) *connection {
	return &connection{
		id:   uuid.NewString(),
		ws:   ws,
		gw:   gw,
		log:  log,
		done: make(chan struct{}),
	}
}

func (c *connection) ID() string { return c.id }

// Send serialises the event into an envelope frame and writes it. Failures
// are returned to the gateway, which treats delivery as fire-and-forget.
func (c *connection) Send(event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// serve runs the read loop until the peer goes away, then unregisters the
// connection so its room membership is cleaned up like an explicit leave.
func (c *connection) serve() {
	c.gw.Register(c)
	defer c.gw.Unregister(c.id)
	defer c.close()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected close", zap.String("conn", c.id), zap.Error(err))
			} else {
				c.log.Debug("connection closed", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		c.gw.Handle(c.id, frame)
	}
}

func (c *connection) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug("ping failed", zap.String("conn", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
