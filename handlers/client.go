package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/pong-arena/protocol"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// wsClient pumps frames between one websocket and the game server.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

func newWSClient(conn *websocket.Conn, logger *slog.Logger) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// Send queues msg for the write pump. It runs on the event loop and never
// blocks: a client whose buffer is full is disconnected.
func (c *wsClient) Send(msg protocol.ServerMessage) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("Failed to encode server message",
			slog.String("event", msg.Event()),
			slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.logger.Warn("Send buffer full, closing slow client", slog.String("event", msg.Event()))
		c.closeLocked()
	}
}

// close makes the write pump send a close frame and exit.
func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *wsClient) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsClient) readPump(onFrame func([]byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}
		onFrame(frame)
	}
}

// writePump writes one websocket message per frame.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("Websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Websocket ping failed", slog.Any("error", err))
				return
			}
		}
	}
}
