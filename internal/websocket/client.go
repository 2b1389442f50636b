// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// The connection is push-only: the server sends model notifications and
// keepalive pings; the browser may send an application "ping" and nothing
// else of interest.
const (
	writeWait    = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10
	maxInbound   = 512
	sendBuffer   = 16
)

var clientIDCounter atomic.Uint64

// Client connects one websocket to the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps conn. Call Start after registering it with the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID returns the client's ordering key.
func (c *Client) ID() uint64 {
	return c.id
}

// Start runs the push loop and the inbound listener.
func (c *Client) Start() {
	go c.push()
	go c.listen()
}

// listen keeps the read deadline moving and unregisters the client once the
// peer goes away. Only application pings get an answer.
func (c *Client) listen() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	if err := extend(""); err != nil {
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Uint64("client", c.id).Msg("WebSocket closed unexpectedly")
			}
			return
		}
		if msg.Type != MessageTypePing {
			continue
		}
		select {
		case c.send <- Message{Type: MessageTypePong}:
		default:
		}
	}
}

// push drains send until the hub closes it, pinging on idle.
func (c *Client) push() {
	keepalive := time.NewTicker(pingInterval)
	defer func() {
		keepalive.Stop()
		_ = c.conn.Close()
	}()

	for {
		var err error
		select {
		case msg, open := <-c.send:
			if !open {
				_ = c.write(func() error { return c.conn.WriteMessage(websocket.CloseMessage, nil) })
				return
			}
			err = c.write(func() error { return c.conn.WriteJSON(msg) })
		case <-keepalive.C:
			err = c.write(func() error { return c.conn.WriteMessage(websocket.PingMessage, nil) })
		}
		if err != nil {
			logging.Debug().Err(err).Uint64("client", c.id).Msg("WebSocket write failed")
			return
		}
	}
}

func (c *Client) write(fn func() error) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return fn()
}
