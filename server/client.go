package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/version"
)

// WebSocket timeouts, following the gorilla chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Outgoing messages queued per client
	sendBuffer = 64
)

// Client is one WebSocket connection.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	sendMsg   chan interface{}
	id        string
	closeOnce sync.Once

	mu     sync.Mutex // guards closed against sends racing close
	closed bool
}

// HandleWebSocket upgrades the connection, greets the client and starts
// its pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	client := &Client{
		server:  s,
		conn:    conn,
		sendMsg: make(chan interface{}, sendBuffer),
		id:      uuid.NewString(),
	}

	// Greet before writePump starts so writes never overlap
	hello := HelloMessage{Type: MsgHello, Version: version.Get().Version, Stats: s.store.Stats()}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(hello); err != nil {
		s.logger.Debugw("Failed to send hello", logger.FieldClientID, client.id, logger.FieldError, err)
		conn.Close()
		return
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads client messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.server.logger.Warnw("WebSocket read error", logger.FieldClientID, c.id, logger.FieldError, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error", logger.FieldClientID, c.id, logger.FieldError, err)
			c.send(ErrorMessage{Type: MsgError, Error: "invalid message: " + err.Error()})
			continue
		}
		c.routeMessage(&msg)
	}
}

// routeMessage dispatches one decoded client message.
func (c *Client) routeMessage(msg *ClientMessage) {
	switch msg.Type {
	case MsgGenerate:
		resp, err := c.server.generate(c.server.ctx, msg.Generate)
		if err != nil {
			c.send(ErrorMessage{Type: MsgError, RequestID: msg.RequestID, Error: err.Error()})
			return
		}
		c.send(ResultMessage{Type: MsgGenerateResult, RequestID: msg.RequestID, GenerateResponse: *resp})
	default:
		c.send(ErrorMessage{Type: MsgError, RequestID: msg.RequestID, Error: "unknown message type: " + msg.Type})
	}
}

// send queues a reply to this client, logging when it is dropped.
func (c *Client) send(msg interface{}) {
	if !c.trySend(msg) {
		c.server.logger.Warnw("Client send queue full or closed, dropping message", logger.FieldClientID, shortID(c.id))
	}
}

// trySend queues msg without blocking and reports whether it was queued.
func (c *Client) trySend(msg interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.sendMsg <- msg:
		return true
	default:
		return false
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Debugw("WebSocket write failed", logger.FieldClientID, c.id, logger.FieldError, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close closes the send queue once, which ends writePump.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.sendMsg)
		c.mu.Unlock()
	})
}
