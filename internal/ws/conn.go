package ws

import (
	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// Conn wraps a websocket connection with a buffered outbound queue so pushes
// from the dispatcher never block on a slow client.
type Conn struct {
	Sock   *websocket.Conn
	Send   chan []byte
	UserID int64
}

func NewConn(sock *websocket.Conn, userID int64) *Conn {
	return &Conn{
		Sock:   sock,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
	}
}

// StartWrite drains the Send queue onto the socket. Runs in its own goroutine
// per connection; exits when Send is closed or the socket errors.
func (c *Conn) StartWrite() {
	defer c.Sock.Close()
	for msg := range c.Send {
		if err := c.Sock.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
