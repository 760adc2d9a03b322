package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/pong-arena/game"
	"github.com/gorilla/websocket"
)

const attachTimeout = 5 * time.Second

// Gateway is the part of game.Server the websocket handler drives.
type Gateway interface {
	Attach(ctx context.Context, sender game.Sender) (*game.Connection, error)
	Receive(c *game.Connection, frame []byte)
	Detach(c *game.Connection)
}

type WebSocketHandler struct {
	gateway  Gateway
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWebSocketHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(gateway Gateway, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		gateway: gateway,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, o := range allowed {
			if strings.EqualFold(o, u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}

// ServeWs upgrades the request and attaches a new guest connection.
//
// @Summary      Game websocket
// @Description  Upgrades to a websocket speaking the JSON event protocol. The first frame is `init`.
// @Tags         game
// @Success      101
// @Router       /ws [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.logger.Debug("Websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := newWSClient(conn, h.logger)
	ctx, cancel := context.WithTimeout(context.Background(), attachTimeout)
	gc, err := h.gateway.Attach(ctx, client)
	cancel()
	if err != nil {
		h.logger.Warn("Failed to attach websocket connection", slog.Any("error", err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	h.track(client)
	go client.writePump()
	go func() {
		client.readPump(func(frame []byte) { h.gateway.Receive(gc, frame) })
		h.gateway.Detach(gc)
		client.close()
		h.untrack(client)
	}()
}

// CloseAll sends a close frame to every open websocket.
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
	}
}

// Open is the number of websockets currently served.
func (h *WebSocketHandler) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *WebSocketHandler) track(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *WebSocketHandler) untrack(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
