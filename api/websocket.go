package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may go silent before the read
	// side declares it dead.
	pongWait = 60 * time.Second

	// pingPeriod must stay under pongWait so a healthy peer always has
	// a ping to answer.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; clients only send small
	// subscribe/ping messages.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin enforcement is left to the reverse proxy
	},
}

// WSClient is one WebSocket connection attached to the hub. The hub
// owns the send channel; the two pumps own the connection.
type WSClient struct {
	hub  *WSHub
	conn *websocket.Conn
	send chan WSMessage
}

// handleWebSocket upgrades the request and attaches the connection to
// the hub, which then streams dashboard refresh events and notices.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan WSMessage, 256),
	}
	s.wsHub.Register(client)

	go client.writePump()
	go client.readPump()
}

// readPump consumes client messages until the connection drops. The
// client protocol is small: "subscribe" is acknowledged with
// "subscribed" echoing the payload, "ping" answers "pong", anything
// else is ignored. Pong frames extend the read deadline.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Not part of the protocol; skip
			continue
		}

		switch msg.Type {
		case "subscribe":
			c.send <- WSMessage{Type: "subscribed", Data: msg.Data}
		case "ping":
			c.send <- WSMessage{Type: "pong"}
		}
	}
}

// writePump delivers hub messages to the peer and keeps the connection
// alive with periodic pings. It drains anything that queued up behind a
// write before blocking again.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub dropped this client and closed its channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

			queued := len(c.send)
			for i := 0; i < queued; i++ {
				if err := c.conn.WriteJSON(<-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
